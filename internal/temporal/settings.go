// Package temporal holds the plumbing between the service and a Temporal
// cluster: connection settings, dialing with retry, log adaptation and
// search attribute registration.
package temporal

import "time"

// Settings holds the connection and queue settings shared by every binary.
type Settings struct {
	Address            string        `env:"TEMPORAL_ADDRESS" envDefault:"localhost:7233"`
	Namespace          string        `env:"TEMPORAL_NAMESPACE" envDefault:"default"`
	TaskQueue          string        `env:"TEMPORAL_TASK_QUEUE" envDefault:"pubsub-task-queue"`
	SecondaryTaskQueue string        `env:"TEMPORAL_TASK_QUEUE_SECONDARY" envDefault:"pubsub-task-queue-secondary"`
	ConnectMaxElapsed  time.Duration `env:"TEMPORAL_CONNECT_MAX_ELAPSED" envDefault:"2m"`
}
