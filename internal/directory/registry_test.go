package directory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
	"github.com/KilimcininKorOglu/fakeldap/internal/passwd"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Register("cn=a"))
	assert.False(t, r.Register("cn=a"))
	assert.True(t, r.Contains("cn=a"))
	assert.False(t, r.Contains("cn=b"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryConcurrentRegister(t *testing.T) {
	r := NewRegistry()

	var added atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Register(fmt.Sprintf("cn=user%d", i%8)) {
				added.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(8), added.Load())
	assert.Equal(t, 8, r.Len())
}

func TestCacheRegistersOnce(t *testing.T) {
	s, _ := newTestService(t, aliceLine+"bob:pw2\n")

	core, logs := observer.New(zapcore.DebugLevel)
	cache := NewCache(s.store, NewRegistry(), logging.NewWithCore(core))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	registered := logs.FilterMessage("identity registered").All()
	require.Len(t, registered, 2)
	assert.Equal(t, 2, cache.registry.Len())
}

func TestCacheSnapshot(t *testing.T) {
	s, _ := newTestService(t, "b:1\na:2\nb:3\n")

	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, "b", snap.Entries()[0].CN)
	assert.Equal(t, "a", snap.Entries()[1].CN)

	b, ok := snap.Get("b")
	require.True(t, ok)
	assert.Equal(t, []string{"3"}, b.Attributes[AttrPass])

	_, ok = snap.Get("c")
	assert.False(t, ok)
}

func TestNewEntry(t *testing.T) {
	r, err := passwd.ParseRecord("alice:pw1:1000:1000:Alice:/home/alice:/bin/sh")
	require.NoError(t, err)

	e := NewEntry(r)
	assert.Equal(t, "cn=alice, ou=users, o=myhost", e.DN)
	assert.Equal(t, map[string][]string{
		"cn":            {"alice"},
		"pass":          {"pw1"},
		"uid":           {"1000"},
		"gid":           {"1000"},
		"description":   {"Alice"},
		"homedirectory": {"/home/alice"},
		"shell":         {"/bin/sh"},
		"objectclass":   {"unixUser"},
	}, e.Attributes)
}
