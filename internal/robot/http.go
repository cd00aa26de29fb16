package robot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/me/gofleet/pkg/model"
)

// StartMissionPath is the robot API endpoint that starts a mission.
const StartMissionPath = "/schedule/start-mission"

// HTTPDispatcher starts missions through the robot's HTTP API.
type HTTPDispatcher struct {
	httpClient *http.Client
	scheme     string
	logger     *slog.Logger
}

// NewHTTPDispatcher creates an HTTPDispatcher. A zero timeout means 30s.
func NewHTTPDispatcher(timeout time.Duration, logger *slog.Logger) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPDispatcher{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		scheme:     "http",
		logger:     logger.With("component", "http-dispatcher"),
	}
}

type startMissionRequest struct {
	MissionID string `json:"mission_id"`
}

// StartMission POSTs the mission ID to the robot. Any 2xx response is success.
func (d *HTTPDispatcher) StartMission(ctx context.Context, robot *model.Robot, missionID string) Result {
	if robot.Host == "" {
		return Failure(fmt.Sprintf("robot %s has no host", robot.ID))
	}
	url := robotURL(d.scheme, robot) + StartMissionPath

	body, err := json.Marshal(startMissionRequest{MissionID: missionID})
	if err != nil {
		return Failure(fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Failure(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	d.logger.Debug("start mission", "robot_id", robot.ID, "mission_id", missionID, "url", url)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Failure(fmt.Sprintf("robot %s unreachable: %v", robot.ID, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Failure(fmt.Sprintf("read response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Failure(fmt.Sprintf("robot %s returned HTTP %d: %s", robot.ID, resp.StatusCode, msg))
	}
	return Success(respBody)
}

func robotURL(scheme string, robot *model.Robot) string {
	if strings.Contains(robot.Host, "://") {
		return strings.TrimRight(robot.Host, "/")
	}
	if robot.Port > 0 {
		return fmt.Sprintf("%s://%s:%d", scheme, robot.Host, robot.Port)
	}
	return fmt.Sprintf("%s://%s", scheme, robot.Host)
}
