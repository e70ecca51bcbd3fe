package devserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/naveenspark/hackforge/pkg/client"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// Light argon2id parameters; this server holds throwaway demo accounts.
const (
	argonTime    = 1
	argonMemory  = 8 * 1024
	argonThreads = 1
	argonKeyLen  = 32
	saltLen      = 16
)

const maxAvatar = 5 << 20

var errBadHash = errors.New("invalid password hash")

func hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$%s$%s", argon2.Version,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func checkPassword(hash, password string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[1] != "argon2id" {
		return false, errBadHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, errBadHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errBadHash
	}
	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// AddUser creates an account directly and returns a session token for it.
func (s *Server) AddUser(reg domain.Registration, role domain.Role) (domain.AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return domain.AuthResult{}, err
	}
	hash, err := hashPassword(reg.Password)
	if err != nil {
		return domain.AuthResult{}, err
	}
	email := strings.ToLower(strings.TrimSpace(reg.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[email]; ok {
		return domain.AuthResult{}, errDuplicate
	}
	u := domain.UserProfile{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(reg.FirstName),
		LastName:  strings.TrimSpace(reg.LastName),
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[email] = &account{profile: u, password: hash}
	tok := uuid.NewString()
	s.tokens[tok] = u.ID
	return domain.AuthResult{User: u, AccessToken: tok}, nil
}

var errDuplicate = errors.New("devserver: email already registered")

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if !decode(w, r, &reg) {
		return
	}
	res, err := s.AddUser(reg, domain.RoleParticipant)
	switch {
	case errors.Is(err, errDuplicate):
		writeError(w, http.StatusConflict, "User already exists")
		return
	case err != nil:
		writeValidation(w, err)
		return
	}
	s.logger.Info("registered", zap.String("user_id", res.User.ID))
	writeData(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decode(w, r, &creds) {
		return
	}
	if err := creds.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.RLock()
	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(creds.Email))]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	match, err := checkPassword(acct.password, creds.Password)
	if err != nil {
		s.logger.Error("stored hash unreadable", zap.String("user_id", acct.profile.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !match {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	tok := uuid.NewString()
	s.mu.Lock()
	s.tokens[tok] = acct.profile.ID
	u := acct.profile.Clone()
	s.mu.Unlock()
	writeData(w, http.StatusOK, domain.AuthResult{User: u, AccessToken: tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, tok)
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

// user returns a copy of the profile with the given id.
func (s *Server) user(id string) (domain.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.profile.ID == id {
			return a.profile.Clone(), true
		}
	}
	return domain.UserProfile{}, false
}

func (s *Server) updateUser(id string, patch domain.UserPatch) (domain.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.profile.ID == id {
			a.profile = patch.Apply(a.profile)
			return a.profile.Clone(), true
		}
	}
	return domain.UserProfile{}, false
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(callerID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != callerID(r) {
		writeError(w, http.StatusForbidden, "You can only update your own profile")
		return
	}
	var patch domain.UserPatch
	if !decode(w, r, &patch) {
		return
	}
	if patch.Email != nil {
		writeError(w, http.StatusBadRequest, "Email cannot be changed")
		return
	}
	u, ok := s.updateUser(id, patch)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != callerID(r) {
		writeError(w, http.StatusForbidden, "You can only update your own profile")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatar+4096)
	file, hdr, err := r.FormFile(client.UploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please upload an image")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, maxAvatar+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Upload failed")
		return
	}
	if len(data) > maxAvatar {
		writeError(w, http.StatusRequestEntityTooLarge, "Image must be 5MB or smaller")
		return
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	name := uuid.NewString() + path.Ext(hdr.Filename)
	s.mu.Lock()
	s.uploads[name] = upload{contentType: ct, data: data}
	s.mu.Unlock()

	url := "/uploads/" + name
	if r.Host != "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		url = scheme + "://" + r.Host + url
	}
	s.updateUser(id, domain.UserPatch{Avatar: &url})
	writeData(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	up, ok := s.uploads[chi.URLParam(r, "name")]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", up.contentType)
	_, _ = w.Write(up.data) //nolint:errcheck
}
