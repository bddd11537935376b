/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package command

// Classifier maps an utterance to at most one command token by evaluating
// its rules in order. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules, kept in order
func NewClassifier(rules ...Rule) *Classifier {
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Classifier{rules: owned}
}

// NewDefaultClassifier creates a classifier over the kiosk rule table
func NewDefaultClassifier() *Classifier {
	return NewClassifier(Rules()...)
}

// Classify returns the token of the first matching rule
func (c *Classifier) Classify(utterance string) (Token, bool) {
	if rule, ok := c.Match(utterance); ok {
		return rule.Token, true
	}
	return Token{}, false
}

// Match returns the first rule whose triggers occur in the utterance
func (c *Classifier) Match(utterance string) (Rule, bool) {
	if utterance == "" {
		return Rule{}, false
	}
	for _, rule := range c.rules {
		if rule.Matches(utterance) {
			return rule, true
		}
	}
	return Rule{}, false
}

// ClassifyString returns the formatted token, or "" when nothing matches
func (c *Classifier) ClassifyString(utterance string) string {
	token, ok := c.Classify(utterance)
	if !ok {
		return ""
	}
	return token.String()
}

// Rules returns a copy of the classifier's rule table
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
