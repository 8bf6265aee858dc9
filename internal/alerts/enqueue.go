package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hourbank-app/hourbank/internal/config"
)

// ensureClient returns a usable client instance. Enqueueing before
// main has called Init falls back to env-derived config.
func ensureClient() *asynq.Client {
	if client == nil {
		cfg, _ := config.Load("")
		Init(cfg)
	}
	return client
}

// EnqueueVerificationEmail schedules the email-verification message a
// new account needs before it can list services.
func EnqueueVerificationEmail(userID, email, name, verifyURL string) error {
	subject := "Verify your HourBank email"
	body := fmt.Sprintf("Hi %s,\n\nWelcome to HourBank. Confirm your email to start offering and requesting services:\n%s\n\nThe link expires in 24 hours. If you did not sign up, you can ignore this message.\n\nThe HourBank Team", name, verifyURL)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	payload := VerificationEmailPayload{UserID: userID, Name: name, Email: email, VerifyURL: verifyURL, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskVerificationEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueuePasswordReset schedules a password reset notification
func EnqueuePasswordReset(userID, email, resetURL, name string) error {
	expiry := os.Getenv("PASSWORD_RESET_EXP_MINUTES")
	if expiry == "" {
		expiry = "30"
	}
	subject := "Password reset instructions"
	body := fmt.Sprintf("Hello %s,\n\nWe received a request to reset your HourBank password.\n\nTo proceed, open the link below:\n%s\n\nThis link expires in %s minutes. If you did not request this, no action is required.\n\nThe HourBank Team", name, resetURL, expiry)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	payload := PasswordResetPayload{UserID: userID, Email: email, ResetURL: resetURL, Envelope: env, Requested: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskPasswordReset, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueRequestReceived notifies a provider that someone wants their
// service.
func EnqueueRequestReceived(requestID, requesterID, providerID, providerEmail, requesterName string) error {
	env := EmailEnvelope{
		To:      providerEmail,
		Subject: "New service request",
		Body:    fmt.Sprintf("%s requested your service. Open HourBank to accept or decline (request %s).", requesterName, requestID),
	}
	payload := RequestReceivedPayload{RequestID: requestID, RequesterID: requesterID, ProviderID: providerID, Email: providerEmail, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskRequestReceived, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueRequestAccepted notifies the requester that the provider
// accepted.
func EnqueueRequestAccepted(requestID, requesterID, providerID, requesterEmail string) error {
	env := EmailEnvelope{
		To:      requesterEmail,
		Subject: "Your request was accepted",
		Body:    fmt.Sprintf("Request %s was accepted. Coordinate with the provider and mark the exchange complete when done.", requestID),
	}
	payload := RequestAcceptedPayload{RequestID: requestID, RequesterID: requesterID, ProviderID: providerID, Email: requesterEmail, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskRequestAccepted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueRequestCompleted notifies the requester that the exchange
// settled and credits moved.
func EnqueueRequestCompleted(requestID, requesterID, providerID, requesterEmail string, hours int64) error {
	env := EmailEnvelope{
		To:      requesterEmail,
		Subject: "Exchange completed",
		Body:    fmt.Sprintf("Request %s is complete. %d time credit(s) were transferred to the provider. You can now leave a review.", requestID, hours),
	}
	payload := RequestCompletedPayload{RequestID: requestID, RequesterID: requesterID, ProviderID: providerID, Email: requesterEmail, Hours: hours, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskRequestCompleted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}
