// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slackfmt builds Slack mrkdwn for relayed messages.
package slackfmt

import (
	"strings"
)

// controlEscaper escapes the three characters Slack reserves for control
// sequences such as <@U123> and <!here>.
var controlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// Escape escapes text that did not come from Slack (display names from the
// configuration store) so it cannot inject mentions or links.
func Escape(text string) string {
	return controlEscaper.Replace(text)
}

// Bold wraps a single-line name in mrkdwn bold markers. Asterisks inside the
// name would close the span early, so they are swapped for the full-width
// variant, and newlines are folded to spaces.
func Bold(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, "*", "＊")
	name = strings.ReplaceAll(name, "\r\n", " ")
	name = strings.ReplaceAll(name, "\n", " ")
	return "*" + Escape(name) + "*"
}

// Attribute prefixes text with a bold attribution line for the original
// author. Text is passed through as-is: it arrives from Slack already escaped.
func Attribute(name, text string) string {
	bold := Bold(name)
	if bold == "" {
		return text
	}
	return bold + "\n" + text
}

// SharedFileComment is the initial comment attached to a re-uploaded file.
func SharedFileComment(name, fileName string) string {
	return strings.TrimSpace(name) + " shared " + fileName
}
