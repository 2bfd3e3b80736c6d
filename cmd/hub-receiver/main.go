// hub-receiver is a standalone webhook receiver for integration testing.
// It verifies the HMAC signature on every inbound delivery against a shared
// secret and logs the envelope, demonstrating the consumer-side verification
// contract: always verify the raw body bytes before parsing JSON.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/hub/pkg/webhooks"
)

func main() {
	addr := flag.String("addr", ":9191", "Address to listen on")
	secret := flag.String("secret", "", "Shared secret for signature verification")
	header := flag.String("header", "X-Signature", "Signature header name (X-<Name>-Signature for named dispatchers)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *secret == "" {
		log.Fatal("-secret is required")
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.WithError(err).Warn("failed to read body")
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}

		signature := r.Header.Get(*header)
		if !webhooks.Verify(*secret, signature, body) {
			log.WithFields(logrus.Fields{
				"remote":      r.RemoteAddr,
				"environment": r.Header.Get("X-Environment"),
			}).Warn("rejected delivery with invalid signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		var envelope webhooks.Envelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			log.WithError(err).Warn("signature valid but body is not an envelope")
			http.Error(w, "bad envelope", http.StatusBadRequest)
			return
		}

		log.WithFields(logrus.Fields{
			"id":              envelope.ID,
			"type":            envelope.Type,
			"idempotency_key": envelope.IdempotencyKey,
			"api_version":     envelope.APIVersion,
			"environment":     r.Header.Get("X-Environment"),
		}).Info("delivery verified")

		w.WriteHeader(http.StatusNoContent)
	})

	log.WithField("addr", *addr).Info("hub-receiver listening")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
