// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package nadeo

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryMargin is subtracted from token lifetimes so a token that would
// expire mid-cycle counts as expired up front. Validity is always decided
// by clock comparison, never by retrying until an upstream rejects us.
const expiryMargin = 30 * time.Second

// Token is a Nadeo access/refresh token pair. Both tokens are JWTs carrying
// their own expiry in the exp claim; the signature is the server's business,
// only the claim is read here.
type Token struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AccessValid reports whether the access token is still usable at now.
// Nil tokens are never valid.
func (t *Token) AccessValid(now time.Time) bool {
	if t == nil {
		return false
	}
	return tokenValid(t.AccessToken, now)
}

// RefreshValid reports whether the refresh token is still usable at now.
func (t *Token) RefreshValid(now time.Time) bool {
	if t == nil {
		return false
	}
	return tokenValid(t.RefreshToken, now)
}

func tokenValid(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	exp, err := tokenExpiry(token)
	if err != nil {
		return false
	}
	return now.Add(expiryMargin).Before(exp)
}

// tokenExpiry decodes the exp claim of a JWT without verifying the
// signature. The tokens are opaque bearer credentials issued to us; the
// only thing read locally is their validity window.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim: %w", err)
	}
	return exp.Time, nil
}
