// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/auth"
	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

const testPassword = "correct horse battery staple"

func newAuthHandler(t *testing.T, e *testEnv, maxAttempts int) (*AuthHandler, store.User) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	now := time.Now()
	user, err := store.New(e.db).CreateUser(context.Background(), store.CreateUserParams{
		Email: "staff@example.com", PasswordHash: hash, Role: model.RoleEditor, Name: "Staff", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{MaxFailedAttempts: maxAttempts})
	return NewAuthHandler(e.db, e.renderer, e.sm, e.events, lp), user
}

func TestLoginForm(t *testing.T) {
	e := newTestEnv(t)
	h, _ := newAuthHandler(t, e, 5)

	rec := e.serve(h.LoginForm, getRequest("/admin/login/"), nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLogin_Success(t *testing.T) {
	e := newTestEnv(t)
	h, user := newAuthHandler(t, e, 5)

	rec := e.serve(h.Login, postRequest("/admin/login/", url.Values{
		"email": {" Staff@Example.com "}, "password": {testPassword},
	}), nil, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/pages/", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Result().Cookies(), "a session cookie is issued")

	ctx := context.Background()
	got, err := store.New(e.db).GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.LastLoginAt.Valid)

	events, err := e.events.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "User logged in", events[0].Message)
	assert.Contains(t, events[0].Metadata, `"device":`)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "staff@example.com", "wrong"},
		{"unknown user", "nobody@example.com", testPassword},
		{"missing password", "staff@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			h, user := newAuthHandler(t, e, 5)

			rec := e.serve(h.Login, postRequest("/admin/login/", url.Values{
				"email": {tt.email}, "password": {tt.password},
			}), nil, nil)

			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/admin/login/", rec.Header().Get("Location"))
			got, err := store.New(e.db).GetUserByID(context.Background(), user.ID)
			require.NoError(t, err)
			assert.False(t, got.LastLoginAt.Valid)
		})
	}
}

func TestLogin_LockedAccountRejectsCorrectPassword(t *testing.T) {
	e := newTestEnv(t)
	h, user := newAuthHandler(t, e, 2)

	for i := 0; i < 2; i++ {
		e.serve(h.Login, postRequest("/admin/login/", url.Values{
			"email": {"staff@example.com"}, "password": {"wrong"},
		}), nil, nil)
	}

	rec := e.serve(h.Login, postRequest("/admin/login/", url.Values{
		"email": {"staff@example.com"}, "password": {testPassword},
	}), nil, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login/", rec.Header().Get("Location"))
	got, err := store.New(e.db).GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, got.LastLoginAt.Valid)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	h, _ := newAuthHandler(t, e, 5)

	rec := e.serve(h.Logout, postRequest("/admin/logout/", url.Values{}), nil, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login/", rec.Header().Get("Location"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{time.Minute, "1 minute"},
		{15 * time.Minute, "15 minutes"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d), tt.d.String())
	}
}
