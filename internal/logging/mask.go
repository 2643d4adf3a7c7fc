// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides utilities for secure logging and error presentation.
// It includes functions for masking sensitive information in log messages and
// formatting errors for user-friendly display while protecting credentials and secrets.
//
// The package helps ensure that sensitive data like session ids, access tokens,
// and sfdx auth URLs are not accidentally exposed in logs or error messages
// shown to users. The sf CLI is chatty about credentials in its JSON output,
// so everything surfaced from it passes through Mask first.
package logging

import (
	"regexp"
	"strings"
)

var (
	reAccessToken = regexp.MustCompile(`(?i)("accessToken"\s*:\s*")([^"]+)(")`)
	reSessionID   = regexp.MustCompile(`(?i)(sessionId=|sid=)([A-Za-z0-9!._-]+)`)
	reBearer      = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._!-]+)`)
	reAuthURL     = regexp.MustCompile(`(?i)(force://)([^@\s]+)(@)`) // force://clientId:secret:token@host
)

// Mask replaces sensitive values in the input string with "*".
// Session ids, access tokens, and sfdx auth URL credentials are masked.
func Mask(s string) string {
	out := s
	out = reAccessToken.ReplaceAllString(out, "$1***$3")
	out = reSessionID.ReplaceAllString(out, "$1***")
	out = reBearer.ReplaceAllString(out, "$1***")
	out = reAuthURL.ReplaceAllString(out, "$1***$3")
	// Basic env-like pairs key=VALUE; mask common secret keys
	for _, k := range []string{"SF_ACCESS_TOKEN", "SFDX_AUTH_URL", "ACCESS_TOKEN"} {
		out = strings.ReplaceAll(out, k+"=", k+"=***")
	}
	return out
}
