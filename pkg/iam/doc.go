// Package iam (Identity and Access Management) is the heart of the identity
// broker: project authentication, tenant resolution, token grants, and
// user onboarding for every application the broker serves.
//
// # Overview
//
// The iam package is organized into sub-packages that work together:
//
//   - iam/project      — Project (application) registration, API keys, client credentials
//   - iam/tenant       — Tenant entity and slug resolution within a project
//   - iam/user         — User accounts, passwords, tenant memberships
//   - iam/auth         — JWT minting/verification, OAuth2-style grants, HTTP middleware
//   - iam/invitation   — Single-use, time-bound invitations for onboarding users
//   - iam/roles        — Role vocabulary shared by memberships and invitations
//   - iam/iamcontainer — Dependency wiring for the whole module
//
// # Architecture
//
// Each sub-domain follows the same layered layout:
//
//	HTTP Handler (<domain>api)  →  Service (<domain>srv)  →  Repository interface  →  Infrastructure (<domain>infra)
//
// and exposes its own error registry (e.g. "PROJECT", "AUTH", "INVITATION"),
// domain entities with behavior, DTOs for API responses, and repository
// interfaces in port.go.
//
// # Multi-Tenancy
//
// Every tenant belongs to exactly one project, and every credential the
// broker issues is scoped to one project: API keys authenticate the calling
// application, and JWTs are signed with that project's own secret, so a
// token minted for one project can never verify under another. A user may
// hold memberships in tenants of different projects under a single account.
package iam
