// Package account implements login, registration and account deletion
// against the location backend, and keeps the session in step with the
// outcome.
package account

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/audit"
	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/owntracks"
)

var log = logx.GetScope("account")

// Client-facing messages.
const (
	MsgNotLoggedIn        = "Not logged in."
	MsgPasswordRequired   = "Password is required."
	MsgInvalidCredentials = "Invalid username or password."
	MsgUnreachable        = "Could not connect to server."
)

var (
	ErrNotAuthenticated = errors.New("account: no session credentials")
	ErrMissingPassword  = errors.New("account: password missing")
	ErrRejected         = errors.New("account: credentials rejected")
)

// Backend is the part of the location backend this package needs.
type Backend interface {
	ValidateLogin(ctx context.Context, creds owntracks.Credentials) owntracks.ValidationResult
	Register(ctx context.Context, creds owntracks.Credentials) (*owntracks.PassThrough, error)
	DeleteAccount(ctx context.Context, creds owntracks.Credentials) (*owntracks.PassThrough, error)
}

// Session is the slice of the cookie session the service mutates.
type Session interface {
	Establish(username, password string)
	Username() string
	Clear()
}

// Recorder receives audit events.
type Recorder interface {
	Record(ctx context.Context, ev audit.Event)
}

// Meta describes the caller for logs and audit events.
type Meta struct {
	RemoteIP  string
	RequestID string
}

type Service struct {
	backend  Backend
	recorder Recorder
}

func NewService(backend Backend, recorder Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{backend: backend, recorder: recorder}
}

// Login validates the pair against the backend and establishes the session
// on success. A backend refusal returns ErrRejected; a connection failure
// returns an error wrapping owntracks.ErrUnreachable.
func (s *Service) Login(ctx context.Context, sess Session, meta Meta, username, password string) error {
	res := s.backend.ValidateLogin(ctx, owntracks.Credentials{Username: username, Password: password})
	switch res.Verdict {
	case owntracks.Accepted:
		sess.Establish(username, password)
		log.Info("login accepted", zap.String("user", username), zap.String("ip", meta.RemoteIP))
		s.record(ctx, audit.LoginSucceeded, username, meta, nil)
		return nil
	case owntracks.Rejected:
		log.Info("login rejected by backend",
			zap.String("user", username),
			zap.Int("status", res.Status),
			zap.String("ip", meta.RemoteIP))
		s.record(ctx, audit.LoginRejected, username, meta, map[string]any{"status": res.Status})
		return ErrRejected
	default:
		log.Error("login: backend unreachable", zap.String("user", username), zap.Error(res.Cause))
		return res.Cause
	}
}

// Register checks the credential policy locally, then relays the backend's
// answer. A 201 establishes the session with the registered pair.
func (s *Service) Register(ctx context.Context, sess Session, meta Meta, username, password string) (*owntracks.PassThrough, error) {
	username, err := ValidateNewAccount(username, password)
	if err != nil {
		return nil, err
	}

	pt, err := s.backend.Register(ctx, owntracks.Credentials{Username: username, Password: password})
	if err != nil {
		log.Error("register: backend call failed", zap.String("user", username), zap.Error(err))
		return nil, err
	}
	if pt.Status == http.StatusCreated {
		sess.Establish(username, password)
		s.record(ctx, audit.AccountRegistered, username, meta, nil)
	}
	log.Info("register relayed", zap.String("user", username), zap.Int("status", pt.Status))
	return pt, nil
}

// DeleteAccount deletes the session user's account using the password
// supplied with the request. A 200 clears the session.
func (s *Service) DeleteAccount(ctx context.Context, sess Session, meta Meta, password string) (*owntracks.PassThrough, error) {
	username := sess.Username()
	if username == "" {
		return nil, ErrNotAuthenticated
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	pt, err := s.backend.DeleteAccount(ctx, owntracks.Credentials{Username: username, Password: password})
	if err != nil {
		log.Error("delete account: backend call failed", zap.String("user", username), zap.Error(err))
		return nil, err
	}
	if pt.Status == http.StatusOK {
		sess.Clear()
		s.record(ctx, audit.AccountDeleted, username, meta, nil)
	}
	log.Info("delete account relayed", zap.String("user", username), zap.Int("status", pt.Status))
	return pt, nil
}

// SignOut clears the session.
func (s *Service) SignOut(ctx context.Context, sess Session, meta Meta) {
	username := sess.Username()
	sess.Clear()
	if username != "" {
		s.record(ctx, audit.SessionSignedOut, username, meta, nil)
	}
}

func (s *Service) record(ctx context.Context, typ audit.Type, username string, meta Meta, detail map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Type:      typ,
		Username:  username,
		RemoteIP:  meta.RemoteIP,
		RequestID: meta.RequestID,
		Detail:    detail,
	})
}
