// Package server provides the LDAP listener and per-connection message loop
// in front of the directory service.
//
// Each accepted connection runs in its own goroutine and processes its
// requests in order. A connection starts unbound; a successful bind as the
// administrative identity allows search and add on that connection.
//
//	srv := server.New(cfg.Server, dir, logger)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop(context.Background())
//
// Operations other than bind, search, add, unbind and abandon are answered
// with unwillingToPerform.
package server
