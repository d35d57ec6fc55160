package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func generateTestKey(t *testing.T) (ssh.Signer, []byte) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	return signer, pem.EncodeToMemory(block)
}

// startTestServer runs an SSH server on localhost that accepts the cirros user
// with the given password or public key and answers exec requests with handler.
func startTestServer(t *testing.T, password string, authorized ssh.PublicKey, handler func(cmd string) (string, uint32)) (string, int) {
	t.Helper()
	hostKey, _ := generateTestKey(t)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "cirros" && string(pass) == password {
				return nil, nil
			}
			return nil, errors.New("denied")
		},
		PublicKeyCallback: func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if authorized != nil && c.User() == "cirros" && string(key.Marshal()) == string(authorized.Marshal()) {
				return nil, nil
			}
			return nil, errors.New("denied")
		},
	}
	cfg.AddHostKey(hostKey)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg, handler)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig, handler func(cmd string) (string, uint32)) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				_ = ssh.Unmarshal(req.Payload, &payload)
				_ = req.Reply(true, nil)

				out, code := handler(payload.Command)
				_, _ = ch.Write([]byte(out))
				_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{code}))
				_ = ch.Close()
				return
			}
		}()
	}
}

func echoHandler(cmd string) (string, uint32) {
	if cmd == "false" {
		return "failed\n", 1
	}
	return fmt.Sprintf("ran: %s\n", cmd), 0
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()
	_, key := generateTestKey(t)

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "config cannot be nil"},
		{name: "empty host", cfg: &Config{User: "cirros", Password: "x"}, wantErr: "host cannot be empty"},
		{name: "empty user", cfg: &Config{Host: "10.0.0.5", Password: "x"}, wantErr: "user cannot be empty"},
		{name: "no credentials", cfg: &Config{Host: "10.0.0.5", User: "cirros"}, wantErr: "password or a private key"},
		{name: "invalid key", cfg: &Config{Host: "10.0.0.5", User: "cirros", PrivateKey: []byte("nope")}, wantErr: "failed to parse private key"},
		{name: "password", cfg: &Config{Host: "10.0.0.5", User: "cirros", Password: "gocubsgo"}},
		{name: "key", cfg: &Config{Host: "10.0.0.5", User: "cirros", PrivateKey: key}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := NewClient(tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewClient_AppliesDefaultsWithoutMutating(t *testing.T) {
	t.Parallel()
	cfg := &Config{Host: "172.24.4.10", User: "cirros", Password: "gocubsgo"}

	client, err := NewClient(cfg)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, client.config.Port)
	assert.Equal(t, defaultDialTimeout, client.config.DialTimeout)
	assert.Equal(t, defaultMaxRetries, client.config.MaxRetries)
	assert.Equal(t, defaultRetryDelay, client.config.RetryDelay)
	assert.NotNil(t, client.config.HostKeyCallback)
	assert.Equal(t, "172.24.4.10:22", client.Addr())

	assert.Zero(t, cfg.Port)
	assert.Nil(t, cfg.HostKeyCallback)
}

func TestExecute_Password(t *testing.T) {
	t.Parallel()
	host, port := startTestServer(t, "gocubsgo", nil, echoHandler)

	client, err := NewClient(&Config{Host: host, Port: port, User: "cirros", Password: "gocubsgo"})
	require.NoError(t, err)

	out, err := client.Execute(context.Background(), "ping -c 3 20.0.0.10")
	require.NoError(t, err)
	assert.Equal(t, "ran: ping -c 3 20.0.0.10\n", out)
}

func TestExecute_PrivateKey(t *testing.T) {
	t.Parallel()
	signer, key := generateTestKey(t)
	host, port := startTestServer(t, "", signer.PublicKey(), echoHandler)

	client, err := NewClient(&Config{Host: host, Port: port, User: "cirros", PrivateKey: key})
	require.NoError(t, err)

	out, err := client.Execute(context.Background(), "hostname")
	require.NoError(t, err)
	assert.Equal(t, "ran: hostname\n", out)
}

func TestExecute_CommandFailureKeepsOutput(t *testing.T) {
	t.Parallel()
	host, port := startTestServer(t, "gocubsgo", nil, echoHandler)

	client, err := NewClient(&Config{Host: host, Port: port, User: "cirros", Password: "gocubsgo"})
	require.NoError(t, err)

	out, err := client.Execute(context.Background(), "false")
	require.Error(t, err)
	assert.Equal(t, "failed\n", out)
	assert.NotErrorIs(t, err, ErrConnectionFailed)

	var exitErr *ssh.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitStatus())
}

func TestExecute_WrongPasswordIsNotRetried(t *testing.T) {
	t.Parallel()
	host, port := startTestServer(t, "gocubsgo", nil, echoHandler)

	client, err := NewClient(&Config{
		Host: host, Port: port, User: "cirros", Password: "wrong",
		MaxRetries: 10, RetryDelay: time.Hour,
	})
	require.NoError(t, err)

	_, err = client.Execute(context.Background(), "true")
	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "unable to authenticate")
}

func TestExecute_ContextCancellation(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	client, err := NewClient(&Config{
		Host: "127.0.0.1", Port: addr.Port, User: "cirros", Password: "x",
		DialTimeout: 100 * time.Millisecond, MaxRetries: 100, RetryDelay: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.Execute(ctx, "true")
	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}
