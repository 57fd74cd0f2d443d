// Package async runs functions off the calling goroutine and hands back typed
// futures. Pool caps how many of them run at once, which keeps CPU-heavy work
// such as password hashing from starving request handling.
//
//	pool := async.NewPool(4)
//	defer pool.Close()
//
//	hash, err := async.Run(ctx, pool, func(ctx context.Context) ([]byte, error) {
//	    return bcrypt.GenerateFromPassword(pw, cost)
//	})
package async
