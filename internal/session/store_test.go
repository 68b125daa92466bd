/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	creds     Credentials
	password  string
	loginErr  error
	logoutErr error
	calls     atomic.Int32
	logouts   atomic.Int32
	gate      chan struct{}
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (Credentials, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.loginErr != nil {
		return Credentials{}, f.loginErr
	}
	if f.password != "" && (username != f.creds.Username || password != f.password) {
		return Credentials{}, reasonErr{msg: "Incorrect username or password"}
	}
	return f.creds, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.logouts.Add(1)
	return f.logoutErr
}

type reasonErr struct{ msg string }

func (e reasonErr) Error() string  { return "401: " + e.msg }
func (e reasonErr) Reason() string { return e.msg }

type failingStorage struct {
	*MemoryStorage
	getErr    error
	setErr    error
	deleteErr error
}

func (f *failingStorage) Get(key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryStorage.Get(key)
}

func (f *failingStorage) Set(values map[string]string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStorage.Set(values)
}

func (f *failingStorage) Delete(keys ...string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStorage.Delete(keys...)
}

func aliceAuth() *fakeAuth {
	return &fakeAuth{creds: Credentials{AccessToken: "t1", TokenType: "bearer", Username: "alice", Role: RoleAdmin}}
}

func storedValue(t *testing.T, s Storage, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(key)
	require.NoError(t, err)
	return v, ok
}

func TestLogin_PersistsSession(t *testing.T) {
	storage := NewMemoryStorage()
	store, err := NewStore(storage, aliceAuth())
	require.NoError(t, err)

	sess, err := store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "t1", Username: "alice", Role: RoleAdmin}, sess)
	assert.True(t, store.IsAuthenticated())

	for key, want := range map[string]string{KeyToken: "t1", KeyUsername: "alice", KeyRole: "admin"} {
		got, ok := storedValue(t, storage, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestLogin_FailureKeepsPriorState(t *testing.T) {
	t.Run("logged out stays logged out", func(t *testing.T) {
		auth := &fakeAuth{loginErr: errors.New("connection refused")}
		store, err := NewStore(NewMemoryStorage(), auth)
		require.NoError(t, err)

		_, err = store.Login(context.Background(), "alice", "bad")
		require.Error(t, err)
		assert.False(t, store.IsAuthenticated())
		assert.ErrorIs(t, err, ErrLoginFailed)

		var le *LoginError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "login failed", le.Reason)
	})

	t.Run("existing session survives", func(t *testing.T) {
		auth := aliceAuth()
		store, err := NewStore(NewMemoryStorage(), auth)
		require.NoError(t, err)
		_, err = store.Login(context.Background(), "alice", "pw")
		require.NoError(t, err)

		auth.loginErr = reasonErr{msg: "Incorrect username or password"}
		_, err = store.Login(context.Background(), "alice", "nope")
		require.Error(t, err)
		assert.Equal(t, "Incorrect username or password", err.Error())
		assert.Equal(t, "t1", store.Token())
	})
}

func TestLogin_EmptyCredentials(t *testing.T) {
	auth := aliceAuth()
	store, err := NewStore(NewMemoryStorage(), auth)
	require.NoError(t, err)

	_, err = store.Login(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, ErrLoginFailed)
	_, err = store.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Equal(t, int32(0), auth.calls.Load())
}

func TestLogin_IncompleteResponse(t *testing.T) {
	auth := &fakeAuth{creds: Credentials{AccessToken: "t1"}}
	store, err := NewStore(NewMemoryStorage(), auth)
	require.NoError(t, err)

	_, err = store.Login(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.False(t, store.IsAuthenticated())
}

func TestLogin_StorageFailureLeavesMemoryUnchanged(t *testing.T) {
	storage := &failingStorage{MemoryStorage: NewMemoryStorage()}
	store, err := NewStore(storage, aliceAuth())
	require.NoError(t, err)

	storage.setErr = errors.New("disk full")
	_, err = store.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.False(t, store.IsAuthenticated())
}

func TestLogin_SingleFlight(t *testing.T) {
	auth := aliceAuth()
	auth.gate = make(chan struct{})
	store, err := NewStore(NewMemoryStorage(), auth)
	require.NoError(t, err)

	const callers = 5
	var wg sync.WaitGroup
	results := make(chan Session, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := store.Login(context.Background(), "alice", "pw")
			if err == nil {
				results <- sess
			}
		}()
	}

	// Let the first call reach the authenticator before releasing it.
	require.Eventually(t, func() bool { return auth.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(auth.gate)
	wg.Wait()
	close(results)

	for sess := range results {
		assert.Equal(t, "t1", sess.Token)
	}
	assert.LessOrEqual(t, auth.calls.Load(), int32(callers))
	assert.True(t, store.IsAuthenticated())
}

func TestLogin_DifferentCredentialsDoNotShareFlight(t *testing.T) {
	auth := aliceAuth()
	auth.password = "pw"
	auth.gate = make(chan struct{})
	store, err := NewStore(NewMemoryStorage(), auth)
	require.NoError(t, err)

	type result struct {
		sess Session
		err  error
	}
	alice := make(chan result, 1)
	mallory := make(chan result, 1)
	go func() {
		sess, err := store.Login(context.Background(), "alice", "pw")
		alice <- result{sess, err}
	}()
	require.Eventually(t, func() bool { return auth.calls.Load() == 1 }, time.Second, time.Millisecond)

	go func() {
		sess, err := store.Login(context.Background(), "mallory", "wrong")
		mallory <- result{sess, err}
	}()
	// The second caller must reach the authenticator itself while the
	// first one is still blocked.
	require.Eventually(t, func() bool { return auth.calls.Load() == 2 }, time.Second, time.Millisecond)
	close(auth.gate)

	got := <-mallory
	require.Error(t, got.err)
	assert.ErrorIs(t, got.err, ErrLoginFailed)
	assert.Empty(t, got.sess.Token)

	got = <-alice
	require.NoError(t, got.err)
	assert.Equal(t, "alice", got.sess.Username)
	assert.Equal(t, "alice", store.Current().Username)
}

func TestLogout_AlwaysClears(t *testing.T) {
	tests := []struct {
		name      string
		logoutErr error
	}{
		{"remote succeeds", nil},
		{"remote fails", errors.New("network down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			auth := aliceAuth()
			auth.logoutErr = tt.logoutErr
			store, err := NewStore(storage, auth)
			require.NoError(t, err)
			_, err = store.Login(context.Background(), "alice", "pw")
			require.NoError(t, err)

			store.Logout(context.Background())

			assert.False(t, store.IsAuthenticated())
			assert.Equal(t, 0, storage.Len())
			assert.Equal(t, int32(1), auth.logouts.Load())
		})
	}
}

func TestLogout_StorageFailureStillClearsMemory(t *testing.T) {
	storage := &failingStorage{MemoryStorage: NewMemoryStorage()}
	store, err := NewStore(storage, aliceAuth())
	require.NoError(t, err)
	_, err = store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	storage.deleteErr = errors.New("read-only filesystem")
	store.Logout(context.Background())
	assert.False(t, store.IsAuthenticated())
}

func TestExpire(t *testing.T) {
	storage := NewMemoryStorage()
	var fired atomic.Int32
	store, err := NewStore(storage, aliceAuth(), WithExpiredHook(func() { fired.Add(1) }))
	require.NoError(t, err)
	_, err = store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	store.Expire()
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, 0, storage.Len())
	assert.Equal(t, int32(1), fired.Load())

	store.Expire()
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, int32(2), fired.Load())
}

func TestHasPermission(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		store, err := NewStore(NewMemoryStorage(), nil)
		require.NoError(t, err)
		for _, r := range append(Roles(), Role("unknown")) {
			assert.False(t, store.HasPermission(r), r)
		}
	})

	t.Run("monotonic", func(t *testing.T) {
		for _, have := range Roles() {
			storage := NewMemoryStorage()
			require.NoError(t, storage.Set(map[string]string{
				KeyToken: "t", KeyUsername: "u", KeyRole: string(have),
			}))
			store, err := NewStore(storage, nil)
			require.NoError(t, err)

			haveRank, _ := Rank(have)
			for _, need := range Roles() {
				needRank, _ := Rank(need)
				assert.Equal(t, haveRank >= needRank, store.HasPermission(need), "%s needs %s", have, need)
			}
		}
	})

	t.Run("unknown roles fail closed", func(t *testing.T) {
		storage := NewMemoryStorage()
		require.NoError(t, storage.Set(map[string]string{
			KeyToken: "t", KeyUsername: "u", KeyRole: "root",
		}))
		store, err := NewStore(storage, nil)
		require.NoError(t, err)
		assert.True(t, store.IsAuthenticated())
		assert.False(t, store.HasPermission(RoleReadOnly))

		require.NoError(t, storage.Set(map[string]string{KeyRole: "super_admin"}))
		store, err = NewStore(storage, nil)
		require.NoError(t, err)
		assert.False(t, store.HasPermission(Role("owner")))
	})
}

func TestNewStore_UnreadableStorageStartsLoggedOut(t *testing.T) {
	storage := &failingStorage{MemoryStorage: NewMemoryStorage(), getErr: errors.New("disk on fire")}
	require.NoError(t, storage.MemoryStorage.Set(map[string]string{KeyToken: "t1", KeyUsername: "alice", KeyRole: "admin"}))

	store, err := NewStore(storage, aliceAuth())
	require.NoError(t, err)
	assert.False(t, store.IsAuthenticated())

	_, ok, _ := storage.MemoryStorage.Get(KeyToken)
	assert.False(t, ok)
}

func TestNewStore_Rehydrate(t *testing.T) {
	t.Run("complete session", func(t *testing.T) {
		storage := NewMemoryStorage()
		require.NoError(t, storage.Set(map[string]string{
			KeyToken: "t9", KeyUsername: "bob", KeyRole: "read_only",
		}))
		store, err := NewStore(storage, nil)
		require.NoError(t, err)
		assert.Equal(t, Session{Token: "t9", Username: "bob", Role: RoleReadOnly}, store.Current())
	})

	t.Run("partial session is erased", func(t *testing.T) {
		storage := NewMemoryStorage()
		require.NoError(t, storage.Set(map[string]string{KeyToken: "t9"}))
		store, err := NewStore(storage, nil)
		require.NoError(t, err)
		assert.False(t, store.IsAuthenticated())
		assert.Equal(t, 0, storage.Len())
	})

	t.Run("nil storage", func(t *testing.T) {
		_, err := NewStore(nil, nil)
		assert.Error(t, err)
	})
}
