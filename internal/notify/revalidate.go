package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Revalidator pings a frontend revalidation endpoint after content changes,
// so statically generated pages get rebuilt.
type Revalidator struct {
	URL    string
	Secret string
	Client *http.Client
}

func NewRevalidator(url, secret string) *Revalidator {
	return &Revalidator{URL: url, Secret: secret, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Attach triggers a revalidation for every change published on bus.
func (rv *Revalidator) Attach(bus *Bus) *Subscription {
	return bus.Subscribe(All, func(c Change) {
		go rv.Trigger(c.Key)
	})
}

func (rv *Revalidator) Trigger(key string) error {
	if rv.URL == "" {
		log.Debug("revalidation url is not set")
		return nil
	}

	payload := map[string]string{
		"secret": rv.Secret,
		"key":    key,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := rv.Client.Post(rv.URL, "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Errorf("Error triggering revalidation: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("Revalidation failed with status code: %d", resp.StatusCode)
		return &StatusError{Code: resp.StatusCode}
	}
	log.Infof("Revalidation triggered for %s", key)
	return nil
}

// StatusError reports a non-200 answer from the revalidation endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "revalidation returned " + http.StatusText(e.Code)
}
