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

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"
)

const (
	defaultHubURL = "http://localhost:3000"
)

type Answer struct {
	ID          int64             `json:"id"`
	TokenHeader string            `json:"token_header"`
	APIMethod   string            `json:"api_method"`
	AnswerKR    string            `json:"answer_kr"`
	AnswerEN    string            `json:"answer_en"`
	LLMParams   map[string]string `json:"llm_params"`
}

type ConverseResult struct {
	InteractionID string  `json:"interaction_id"`
	Normalized    string  `json:"normalized"`
	RawResponse   string  `json:"raw_response"`
	Token         string  `json:"token"`
	Answer        *Answer `json:"answer"`
	SpeechText    string  `json:"speech_text"`
	Fallback      bool    `json:"fallback"`
	LatencyMS     int64   `json:"latency_ms"`
}

type Interaction struct {
	ID           string    `json:"id"`
	KioskID      string    `json:"kiosk_id"`
	Timestamp    time.Time `json:"timestamp"`
	Utterance    string    `json:"utterance"`
	Token        string    `json:"token"`
	ResponseText string    `json:"response_text"`
	Fallback     bool      `json:"fallback"`
	LatencyMS    int64     `json:"latency_ms"`
}

func main() {
	var (
		hubURL  = flag.String("hub", defaultHubURL, "URL of the kiosk hub")
		action  = flag.String("action", "converse", "Action to perform: infer, query, converse, history, answers")
		text    = flag.String("text", "", "Utterance or prompt text")
		kioskID = flag.String("kiosk", "", "Kiosk ID for converse and history")
		limit   = flag.Int("limit", 20, "Number of history entries")
		format  = flag.String("format", "table", "Output format: table, json")
	)
	flag.Parse()

	client := &KioskCLI{
		hubURL: *hubURL,
		format: *format,
		out:    os.Stdout,
		http:   &http.Client{Timeout: 60 * time.Second},
	}

	if err := client.Run(*action, *text, *kioskID, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type KioskCLI struct {
	hubURL string
	format string
	out    io.Writer
	http   *http.Client
}

// Run dispatches one action
func (c *KioskCLI) Run(action, text, kioskID string, limit int) error {
	switch action {
	case "infer", "query", "converse":
		if text == "" {
			return fmt.Errorf("text required for %s action", action)
		}
	}

	switch action {
	case "infer":
		return c.infer(text)
	case "query":
		return c.query(text)
	case "converse":
		return c.converse(kioskID, text)
	case "history":
		return c.history(kioskID, limit)
	case "answers":
		return c.answers()
	default:
		return fmt.Errorf("unknown action %s (valid actions: infer, query, converse, history, answers)", action)
	}
}

func (c *KioskCLI) infer(text string) error {
	var result struct {
		Token string `json:"token"`
	}
	if err := c.post("/api/infer", map[string]string{"text": text}, &result); err != nil {
		return err
	}

	if c.format == "json" {
		return c.encode(result)
	}
	if result.Token == "" {
		fmt.Fprintln(c.out, "(no command)")
		return nil
	}
	fmt.Fprintln(c.out, result.Token)
	return nil
}

func (c *KioskCLI) query(prompt string) error {
	var result struct {
		Text string `json:"text"`
	}
	if err := c.post("/api/query", map[string]string{"prompt": prompt}, &result); err != nil {
		return err
	}

	if c.format == "json" {
		return c.encode(result)
	}
	fmt.Fprintln(c.out, result.Text)
	return nil
}

func (c *KioskCLI) converse(kioskID, text string) error {
	var result ConverseResult
	if err := c.post("/api/converse", map[string]string{"kiosk_id": kioskID, "text": text}, &result); err != nil {
		return err
	}

	if c.format == "json" {
		return c.encode(result)
	}

	fmt.Fprintf(c.out, "Normalized:  %s\n", result.Normalized)
	fmt.Fprintf(c.out, "Engine:      %s (%dms)\n", result.RawResponse, result.LatencyMS)
	if result.Token != "" {
		fmt.Fprintf(c.out, "Token:       %s\n", result.Token)
	}
	if result.Answer != nil {
		fmt.Fprintf(c.out, "API method:  %s\n", result.Answer.APIMethod)
	}
	fmt.Fprintf(c.out, "Speech:      %s\n", result.SpeechText)
	fmt.Fprintf(c.out, "Fallback:    %s\n", formatBool(result.Fallback))
	return nil
}

func (c *KioskCLI) history(kioskID string, limit int) error {
	query := url.Values{}
	query.Set("page_size", fmt.Sprint(limit))
	if kioskID != "" {
		query.Set("kiosk_id", kioskID)
	}

	var result struct {
		Interactions []Interaction `json:"interactions"`
		Total        int64         `json:"total"`
	}
	if err := c.get("/api/interactions?"+query.Encode(), &result); err != nil {
		return err
	}

	if c.format == "json" {
		return c.encode(result.Interactions)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIOSK\tUTTERANCE\tTOKEN\tFALLBACK\tLATENCY")
	fmt.Fprintln(w, "----\t-----\t---------\t-----\t--------\t-------")
	for _, i := range result.Interactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dms\n",
			i.Timestamp.Local().Format("2006-01-02 15:04:05"),
			i.KioskID,
			i.Utterance,
			i.Token,
			formatBool(i.Fallback),
			i.LatencyMS,
		)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("error flushing output: %w", err)
	}
	fmt.Fprintf(c.out, "\nTotal: %d interactions\n", result.Total)
	return nil
}

func (c *KioskCLI) answers() error {
	var result struct {
		Answers []Answer `json:"answers"`
		Total   int      `json:"total"`
	}
	if err := c.get("/api/answers", &result); err != nil {
		return err
	}

	if c.format == "json" {
		return c.encode(result.Answers)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HEADER\tPARAMS\tAPI METHOD\tANSWER")
	fmt.Fprintln(w, "------\t------\t----------\t------")
	for _, a := range result.Answers {
		params := ""
		for k, v := range a.LLMParams {
			params += k + "=" + v
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.TokenHeader, params, a.APIMethod, a.AnswerKR)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("error flushing output: %w", err)
	}
	fmt.Fprintf(c.out, "\nTotal: %d answers\n", result.Total)
	return nil
}

func (c *KioskCLI) post(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.http.Post(c.hubURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *KioskCLI) get(path string, out interface{}) error {
	resp, err := c.http.Get(c.hubURL + path)
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *KioskCLI) encode(v interface{}) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatBool(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
