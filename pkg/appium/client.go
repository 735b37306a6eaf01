// Package appium is a W3C WebDriver client for an Appium server.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/inji-pages/pkg/core"
	"github.com/devicelab-dev/inji-pages/pkg/logger"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	platform  string // ios, android
}

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Minute, // Session creation can install the app
		},
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return core.ErrSessionNotCreated.WithCause(err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.ErrSessionNotCreated.WithMessage("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return core.ErrSessionNotCreated.WithMessage("no session ID in response")
	}

	if caps, ok := value["capabilities"].(map[string]interface{}); ok {
		if platform, ok := caps["platformName"].(string); ok {
			c.platform = strings.ToLower(platform)
		}
	}
	if c.platform == "" {
		if platform, ok := capabilities["platformName"].(string); ok {
			c.platform = strings.ToLower(platform)
		}
	}
	logger.Info("appium session %s created (platform=%s)", c.sessionID, c.platform)

	// Waiting is owned by the page helper, so the server must not add its own idle/selector waits.
	waitForIdleTimeout := 0
	if settings, ok := capabilities["appium:settings"].(map[string]interface{}); ok {
		if val, ok := settings["waitForIdleTimeout"].(int); ok {
			waitForIdleTimeout = val
		} else if val, ok := settings["waitForIdleTimeout"].(float64); ok {
			waitForIdleTimeout = int(val)
		}
	}

	var settings map[string]interface{}
	if c.platform == "ios" {
		settings = map[string]interface{}{
			"waitForIdleTimeout":      waitForIdleTimeout,
			"animationCoolOffTimeout": 0,
		}
	} else {
		settings = map[string]interface{}{
			"waitForIdleTimeout":     waitForIdleTimeout,
			"waitForSelectorTimeout": 0,
		}
	}
	if err := c.SetSettings(settings); err != nil {
		logger.Warn("failed to apply driver settings: %v", err)
	}

	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	logger.Info("appium session %s closed", c.sessionID)
	c.sessionID = ""
	return err
}

// Platform returns the platform (ios/android).
func (c *Client) Platform() string {
	return c.platform
}

// SessionID returns the active session id, empty when disconnected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(strategy, value string) (string, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(c.sessionPath()+"/element", body)
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", &WebDriverError{Code: CodeNoSuchElement, Message: "empty find response"}
	}

	id := extractElementID(elemValue)
	if id == "" {
		return "", &WebDriverError{Code: CodeNoSuchElement, Message: "no element id in response"}
	}
	return id, nil
}

// FindElements finds multiple elements. Zero matches is not an error.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(c.sessionPath()+"/elements", body)
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return []string{}, nil
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ClickElement clicks an element using WebDriver standard endpoint.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", map[string]interface{}{})
	return err
}

// IsElementDisplayed checks if element is visible.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// IsElementEnabled checks if element is enabled.
func (c *Client) IsElementEnabled(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/enabled")
	if err != nil {
		return false, err
	}
	enabled, _ := resp["value"].(bool)
	return enabled, nil
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Timeouts

// SetImplicitWait sets the implicit wait timeout.
func (c *Client) SetImplicitWait(timeout time.Duration) error {
	_, err := c.post(c.sessionPath()+"/timeouts", map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// SetSettings updates Appium driver settings.
// For Android UiAutomator2: waitForIdleTimeout, waitForSelectorTimeout
// For iOS XCUITest: animationCoolOffTimeout
func (c *Client) SetSettings(settings map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/appium/settings", map[string]interface{}{
		"settings": settings,
	})
	return err
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.ErrServerUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.ErrServerUnreachable.WithCause(err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &WebDriverError{Code: CodeUnknown, Message: strings.TrimSpace(string(respBody)), HTTPStatus: resp.StatusCode}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if wdErr := parseWebDriverError(result, resp.StatusCode); wdErr != nil {
		logger.Debug("%s %s -> %v", method, path, wdErr)
		return result, wdErr
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
