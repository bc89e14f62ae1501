package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/service"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const readingsPath = "/readings"

// DeviceClient pulls pending readings from a device's HTTP endpoint.
type DeviceClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

var _ service.ReadingFetcher = (*DeviceClient)(nil)

func NewDeviceClient(timeout time.Duration, logger *zap.Logger) *DeviceClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			fields := []zap.Field{zap.Error(err)}
			if r != nil && r.Request != nil {
				fields = append(fields,
					zap.String("url", r.Request.URL),
					zap.Int("attempt", r.Request.Attempt),
					zap.Int("status", r.StatusCode()),
				)
			}
			logger.Warn("Retrying device request", fields...)
		}).
		SetHeader("Accept", "application/json")

	return &DeviceClient{httpClient: client, logger: logger}
}

// FetchReadings GET {baseURL}/readings.
func (c *DeviceClient) FetchReadings(ctx context.Context, baseURL string) ([]domain.Reading, error) {
	url := strings.TrimRight(baseURL, "/") + readingsPath

	c.logger.Debug("Fetching device readings", zap.String("url", url))
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		c.logger.Warn("Device request failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to call device: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("Device returned an error status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode()),
			zap.Int("attempts", resp.Request.Attempt),
		)
		return nil, fmt.Errorf("device returned status %d after %d attempts", resp.StatusCode(), resp.Request.Attempt)
	}

	readings, err := ParseReadings(resp.Body())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Device readings fetched",
		zap.String("url", url),
		zap.Int("count", len(readings)),
	)
	return readings, nil
}
