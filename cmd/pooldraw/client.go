package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// callerHeader carries the caller identity on state-mutating calls.
const callerHeader = "X-Caller-Address"

type daemonClient struct {
	baseURL string
	caller  string
	http    *http.Client
}

func getClientFromState() (*daemonClient, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	url, ok := state["daemon_url"]
	if !ok || len(url) == 0 {
		return nil, fmt.Errorf("missing daemon_url, run `pooldraw config connect <URL>`")
	}
	return &daemonClient{
		baseURL: strings.TrimRight(url, "/"),
		caller:  state["caller_address"],
		http:    &http.Client{},
	}, nil
}

func (c *daemonClient) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *daemonClient) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *daemonClient) put(path string, body, out interface{}) error {
	return c.do(http.MethodPut, path, body, out)
}

func (c *daemonClient) do(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(c.caller) > 0 {
		req.Header.Set(callerHeader, c.caller)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(buf, &errBody); err == nil && len(errBody.Error) > 0 {
			return fmt.Errorf("%s", errBody.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(buf, out)
}
