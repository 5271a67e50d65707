package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"EternalJukebox/logger"
)

// DefaultFirebaseEndpoint is the legacy FCM HTTP send endpoint.
const DefaultFirebaseEndpoint = "https://fcm.googleapis.com/fcm/send"

type firebaseNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type firebasePayload struct {
	To           string               `json:"to"`
	Notification firebaseNotification `json:"notification"`
}

// FirebaseNotifier pushes alerts to a single device through FCM.
type FirebaseNotifier struct {
	endpoint   string
	appKey     string
	device     string
	httpClient *http.Client
}

// NewFirebaseNotifier 创建 FCM 推送器
func NewFirebaseNotifier(appKey, device string, timeout time.Duration) *FirebaseNotifier {
	return &FirebaseNotifier{
		endpoint:   DefaultFirebaseEndpoint,
		appKey:     appKey,
		device:     device,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetEndpoint overrides the FCM URL.
func (f *FirebaseNotifier) SetEndpoint(endpoint string) {
	f.endpoint = endpoint
}

// Alert 推送告警，失败只记录日志
func (f *FirebaseNotifier) Alert(ctx context.Context, title, body string) {
	if err := f.send(ctx, title, body); err != nil {
		logger.Warn("[Alert] Firebase 推送失败",
			logger.String("title", title),
			logger.ErrorField(err))
	}
}

func (f *FirebaseNotifier) send(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(firebasePayload{
		To:           f.device,
		Notification: firebaseNotification{Title: title, Body: body},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "key="+f.appKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}
