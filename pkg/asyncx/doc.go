// Package asyncx provides small concurrency helpers with first-class
// context support.
//
// # Fan-out
//
// [AllSettled] runs a set of functions concurrently and waits for every one
// to finish. It never short-circuits: each function gets its own [Result],
// returned in the original order. Useful for probing several dependencies
// at once.
//
//	checks := asyncx.AllSettled(ctx,
//	    func(ctx context.Context) (string, error) { return "db", db.PingContext(ctx) },
//	    func(ctx context.Context) (string, error) { return "redis", rdb.Ping(ctx).Err() },
//	)
//
// # Retries
//
// [RetryWithBackoff] calls a function until it succeeds or the attempt
// budget runs out, doubling the delay between attempts. Cancellation is
// honored both before each attempt and while waiting.
//
//	db, err := asyncx.RetryWithBackoff(ctx, 5, 500*time.Millisecond,
//	    func(ctx context.Context) (*sqlx.DB, error) {
//	        return database.Connect(cfg)
//	    })
package asyncx
