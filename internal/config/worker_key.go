package config

type WorkerKeyStruct struct {
	PersistAttemptsQueue string
	// PersistAttemptsRetries is a hash of session id to failed insert count.
	PersistAttemptsRetries string
	// PersistAttemptsDead holds attempts that kept failing to insert.
	PersistAttemptsDead string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAttemptsQueue:   "persist_attempts_queue",
	PersistAttemptsRetries: "persist_attempts_retries",
	PersistAttemptsDead:    "persist_attempts_dead",
}
