package kernel

// ProjectID identifies a registered SaaS project.
type ProjectID string

func NewProjectID(id string) ProjectID { return ProjectID(id) }
func (p ProjectID) String() string     { return string(p) }
func (p ProjectID) IsEmpty() bool      { return string(p) == "" }

// TenantID identifies a tenant within a project.
type TenantID string

func NewTenantID(id string) TenantID { return TenantID(id) }
func (t TenantID) String() string    { return string(t) }
func (t TenantID) IsEmpty() bool     { return string(t) == "" }

// UserID identifies a global user. Users are not owned by any project;
// memberships tie them to tenants.
type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }
