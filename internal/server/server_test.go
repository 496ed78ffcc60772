package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KilimcininKorOglu/fakeldap/internal/config"
	"github.com/KilimcininKorOglu/fakeldap/internal/directory"
	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
	"github.com/KilimcininKorOglu/fakeldap/internal/passwd"
)

const testRecords = "alice:pw1:1000:1000:Alice:/home/alice:/bin/sh\n" +
	"bob:pw2:1001:1000:Bob:/home/bob:/bin/bash\n"

func startServer(t *testing.T, cfg config.ServerConfig, content string) (*Server, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fakepasswd")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:0"
	}
	srv := New(cfg, directory.NewService(passwd.NewStore(path, nil), nil), nil)
	require.NoError(t, srv.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	return srv, path
}

func dial(t *testing.T, srv *Server) *goldap.Conn {
	t.Helper()
	conn, err := goldap.DialURL("ldap://" + srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func bindRoot(t *testing.T, conn *goldap.Conn) {
	t.Helper()
	require.NoError(t, conn.Bind("cn=root", "secret"))
}

func search(conn *goldap.Conn, base, filter string, attrs ...string) (*goldap.SearchResult, error) {
	return conn.Search(goldap.NewSearchRequest(
		base, goldap.ScopeWholeSubtree, goldap.NeverDerefAliases, 0, 0, false,
		filter, attrs, nil))
}

func assertCode(t *testing.T, err error, code uint16) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, goldap.IsErrorWithCode(err, code), "expected %s, got %v", goldap.LDAPResultCodeMap[code], err)
}

func TestBind(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)

	tests := []struct {
		name     string
		dn       string
		password string
		code     uint16
	}{
		{"root", "cn=root", "secret", goldap.LDAPResultSuccess},
		{"root wrong password", "cn=root", "nope", goldap.LDAPResultInvalidCredentials},
		{"user", "cn=alice, ou=users, o=myhost", "pw1", goldap.LDAPResultSuccess},
		{"user compact dn", "cn=bob,ou=users,o=myhost", "pw2", goldap.LDAPResultSuccess},
		{"user wrong password", "cn=alice, ou=users, o=myhost", "pw2", goldap.LDAPResultInvalidCredentials},
		{"unknown user", "cn=carol, ou=users, o=myhost", "pw", goldap.LDAPResultInvalidCredentials},
		{"wrong container", "cn=alice, ou=people, o=myhost", "pw1", goldap.LDAPResultInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dial(t, srv)
			err := conn.Bind(tt.dn, tt.password)
			if tt.code == goldap.LDAPResultSuccess {
				assert.NoError(t, err)
				return
			}
			assertCode(t, err, tt.code)
		})
	}
}

func TestAnonymousBind(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)
	conn := dial(t, srv)

	require.NoError(t, conn.UnauthenticatedBind(""))

	_, err := search(conn, "o=myhost", "(objectClass=*)")
	assertCode(t, err, goldap.LDAPResultInsufficientAccessRights)
}

func TestFailedBindResetsConnection(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)
	conn := dial(t, srv)

	bindRoot(t, conn)
	_, err := search(conn, "o=myhost", "(cn=alice)")
	require.NoError(t, err)

	assertCode(t, conn.Bind("cn=root", "wrong"), goldap.LDAPResultInvalidCredentials)

	_, err = search(conn, "o=myhost", "(cn=alice)")
	assertCode(t, err, goldap.LDAPResultInsufficientAccessRights)
}

func TestSearch(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)
	conn := dial(t, srv)
	bindRoot(t, conn)

	t.Run("equality", func(t *testing.T) {
		res, err := search(conn, "o=myhost", "(cn=alice)")
		require.NoError(t, err)
		require.Len(t, res.Entries, 1)

		e := res.Entries[0]
		assert.Equal(t, "cn=alice, ou=users, o=myhost", e.DN)
		assert.Equal(t, "1000", e.GetAttributeValue("uid"))
		assert.Equal(t, "/home/alice", e.GetAttributeValue("homedirectory"))
		assert.Equal(t, "/bin/sh", e.GetAttributeValue("shell"))
		assert.Equal(t, "unixUser", e.GetAttributeValue("objectclass"))
	})

	t.Run("all users in file order", func(t *testing.T) {
		res, err := search(conn, "ou=users, o=myhost", "(objectClass=unixUser)")
		require.NoError(t, err)
		require.Len(t, res.Entries, 2)
		assert.Equal(t, "alice", res.Entries[0].GetAttributeValue("cn"))
		assert.Equal(t, "bob", res.Entries[1].GetAttributeValue("cn"))
	})

	t.Run("compound filter", func(t *testing.T) {
		res, err := search(conn, "o=myhost", "(&(gid=1000)(!(cn=alice)))")
		require.NoError(t, err)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "bob", res.Entries[0].GetAttributeValue("cn"))
	})

	t.Run("no match", func(t *testing.T) {
		res, err := search(conn, "o=myhost", "(cn=nobody)")
		require.NoError(t, err)
		assert.Empty(t, res.Entries)
	})

	t.Run("requested attributes", func(t *testing.T) {
		res, err := search(conn, "o=myhost", "(cn=bob)", "uid")
		require.NoError(t, err)
		require.Len(t, res.Entries, 1)
		require.Len(t, res.Entries[0].Attributes, 1)
		assert.Equal(t, "uid", res.Entries[0].Attributes[0].Name)
		assert.Equal(t, "1001", res.Entries[0].Attributes[0].Values[0])
	})

	t.Run("base outside suffix", func(t *testing.T) {
		_, err := search(conn, "o=otherhost", "(cn=alice)")
		assertCode(t, err, goldap.LDAPResultNoSuchObject)
	})
}

func TestSearchRequiresRoot(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)

	t.Run("unbound", func(t *testing.T) {
		conn := dial(t, srv)
		_, err := search(conn, "o=myhost", "(cn=alice)")
		assertCode(t, err, goldap.LDAPResultInsufficientAccessRights)
	})

	t.Run("bound as user", func(t *testing.T) {
		conn := dial(t, srv)
		require.NoError(t, conn.Bind("cn=alice, ou=users, o=myhost", "pw1"))
		_, err := search(conn, "o=myhost", "(cn=alice)")
		assertCode(t, err, goldap.LDAPResultInsufficientAccessRights)
	})
}

func TestAdd(t *testing.T) {
	srv, path := startServer(t, config.ServerConfig{}, testRecords)
	conn := dial(t, srv)
	bindRoot(t, conn)

	req := goldap.NewAddRequest("cn=newuser, ou=users, o=myhost", nil)
	req.Attribute("objectClass", []string{"unixUser"})
	req.Attribute("cn", []string{"newuser"})
	require.NoError(t, conn.Add(req))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testRecords+"newuser:x:1001:1000::/home/newuser:/bin/bash\n", string(data))

	res, err := search(conn, "o=myhost", "(cn=newuser)")
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "/home/newuser", res.Entries[0].GetAttributeValue("homedirectory"))

	t.Run("duplicate", func(t *testing.T) {
		err := conn.Add(req)
		assertCode(t, err, goldap.LDAPResultEntryAlreadyExists)
	})

	t.Run("explicit attributes", func(t *testing.T) {
		req := goldap.NewAddRequest("cn=dave, ou=users, o=myhost", nil)
		req.Attribute("objectClass", []string{"unixUser"})
		req.Attribute("userPassword", []string{"davepw"})
		req.Attribute("uid", []string{"2000"})
		req.Attribute("shell", []string{"/bin/zsh"})
		require.NoError(t, conn.Add(req))

		user := dial(t, srv)
		assert.NoError(t, user.Bind("cn=dave, ou=users, o=myhost", "davepw"))
	})

	t.Run("missing object class", func(t *testing.T) {
		req := goldap.NewAddRequest("cn=erin, ou=users, o=myhost", nil)
		req.Attribute("cn", []string{"erin"})
		assertCode(t, conn.Add(req), goldap.LDAPResultConstraintViolation)
	})

	t.Run("wrong container", func(t *testing.T) {
		req := goldap.NewAddRequest("cn=erin, ou=groups, o=myhost", nil)
		req.Attribute("objectClass", []string{"unixUser"})
		assertCode(t, conn.Add(req), goldap.LDAPResultNoSuchObject)
	})

	t.Run("separator in value", func(t *testing.T) {
		req := goldap.NewAddRequest("cn=erin, ou=users, o=myhost", nil)
		req.Attribute("objectClass", []string{"unixUser"})
		req.Attribute("description", []string{"a:b"})
		assertCode(t, conn.Add(req), goldap.LDAPResultConstraintViolation)
	})
}

func TestAddRequiresRoot(t *testing.T) {
	srv, path := startServer(t, config.ServerConfig{}, testRecords)
	conn := dial(t, srv)
	require.NoError(t, conn.Bind("cn=alice, ou=users, o=myhost", "pw1"))

	req := goldap.NewAddRequest("cn=mallory, ou=users, o=myhost", nil)
	req.Attribute("objectClass", []string{"unixUser"})
	assertCode(t, conn.Add(req), goldap.LDAPResultInsufficientAccessRights)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testRecords, string(data))
}

func TestUnsupportedOperation(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)
	conn := dial(t, srv)
	bindRoot(t, conn)

	err := conn.Del(goldap.NewDelRequest("cn=alice, ou=users, o=myhost", nil))
	assertCode(t, err, goldap.LDAPResultUnwillingToPerform)

	// The connection stays usable.
	_, err = search(conn, "o=myhost", "(cn=alice)")
	assert.NoError(t, err)
}

func TestUnbindClosesConnection(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)
	conn := dial(t, srv)
	bindRoot(t, conn)

	require.NoError(t, conn.Unbind())

	assert.Eventually(t, func() bool {
		return srv.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMaxConnections(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{MaxConnections: 1}, testRecords)

	first := dial(t, srv)
	bindRoot(t, first)

	second := dial(t, srv)
	assert.Error(t, second.Bind("cn=root", "secret"))

	// The first connection is unaffected.
	_, err := search(first, "o=myhost", "(cn=alice)")
	assert.NoError(t, err)
}

func TestServerLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakepasswd")
	require.NoError(t, os.WriteFile(path, []byte(testRecords), 0o644))

	srv := New(config.ServerConfig{Address: "127.0.0.1:0"}, directory.NewService(passwd.NewStore(path, nil), nil), nil)
	assert.Nil(t, srv.Addr())
	assert.ErrorIs(t, srv.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerAlreadyRunning)
	require.NotNil(t, srv.Addr())

	conn, err := goldap.DialURL("ldap://" + srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	bindRoot(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.Equal(t, 0, srv.ConnectionCount())

	_, err = search(conn, "o=myhost", "(cn=alice)")
	assert.Error(t, err)
}

func TestStartAddressInUse(t *testing.T) {
	srv, _ := startServer(t, config.ServerConfig{}, testRecords)

	other := New(config.ServerConfig{Address: srv.Addr().String()}, nil, nil)
	assert.Error(t, other.Start(context.Background()))
}

func TestClientDisconnectWithoutUnbind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakepasswd")
	require.NoError(t, os.WriteFile(path, []byte(testRecords), 0o644))

	core, logs := observer.New(zapcore.DebugLevel)
	srv := New(config.ServerConfig{Address: "127.0.0.1:0"},
		directory.NewService(passwd.NewStore(path, nil), nil), logging.NewWithCore(core))
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop(context.Background())

	conn := dial(t, srv)
	bindRoot(t, conn)
	conn.Close()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("connection closed").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), "unexpected warnings: %v", logs.FilterLevelExact(zapcore.WarnLevel).All())
}

func TestBindLogMarksAnonymous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakepasswd")
	require.NoError(t, os.WriteFile(path, []byte(testRecords), 0o644))

	core, logs := observer.New(zapcore.DebugLevel)
	srv := New(config.ServerConfig{Address: "127.0.0.1:0"},
		directory.NewService(passwd.NewStore(path, nil), nil), logging.NewWithCore(core))
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop(context.Background())

	conn := dial(t, srv)
	require.NoError(t, conn.UnauthenticatedBind(""))
	bindRoot(t, conn)

	binds := logs.FilterMessage("bind request").All()
	require.Len(t, binds, 2)
	assert.Equal(t, true, binds[0].ContextMap()["anonymous"])
	assert.Equal(t, false, binds[1].ContextMap()["anonymous"])
}
