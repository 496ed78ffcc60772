// Package ldap maps LDAP protocol messages to typed requests and typed
// results back to protocol messages.
//
// Framing and BER coding are done by github.com/go-asn1-ber/asn1-ber; operation
// tags, result codes and filter decompilation come from
// github.com/go-ldap/ldap/v3. This package only knows the shape of the
// operations the directory answers:
//
//	msg, err := ldap.ReadMessage(conn)
//	if err != nil {
//	    return err
//	}
//	switch msg.Operation {
//	case ldap.OpBindRequest:
//	    req, err := ldap.ParseBindRequest(msg.Op)
//	    // ...
//	    resp := ldap.EncodeResult(msg.ID, ldap.OpBindResponse, &ldap.Result{Code: ldap.ResultSuccess})
//	    err = ldap.WritePacket(conn, resp)
//	}
package ldap
