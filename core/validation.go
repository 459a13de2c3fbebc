// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"encoding/hex"
	"fmt"
)

// ValidateFragment validates a Fragment according to domain rules.
//
// Validation rules:
//   - Name must not be empty (it is the resumption key)
//   - HTML must not be empty
//
// NOT validated (informational only):
//   - Type
//   - Selector
func ValidateFragment(fragment *Fragment) error {
	if fragment == nil {
		return fmt.Errorf("%w: fragment is nil", ErrInvalidFragment)
	}

	if fragment.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrEmptyName)
	}

	if fragment.HTML == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrEmptyContent)
	}

	return nil
}

// ValidateShortcode checks that a transformation result is well-formed.
// A result is usable only when it carries a name and a non-empty template.
func ValidateShortcode(shortcode *Shortcode) error {
	if shortcode == nil {
		return fmt.Errorf("%w: shortcode is nil", ErrInvalidShortcode)
	}

	if shortcode.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidShortcode, ErrEmptyName)
	}

	if shortcode.Template == "" {
		return fmt.Errorf("%w: %w", ErrInvalidShortcode, ErrEmptyTemplate)
	}

	return nil
}

// ValidateFingerprint checks that fp looks like a digest produced by FingerprintOf.
func ValidateFingerprint(fp Fingerprint) error {
	if len(fp) != 64 {
		return fmt.Errorf("%w: length %d", ErrInvalidFingerprint, len(fp))
	}
	if _, err := hex.DecodeString(string(fp)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFingerprint, err)
	}
	return nil
}
