package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure: search still answers from the remaining collections.
	Degraded Status = "degraded"
	// Unhealthy indicates the index store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const (
	checkDatabase  = "database"
	checkEmbedding = "embedding"
	// collection checks are keyed "collection:<key>"
	collectionPrefix = "collection:"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db          DBPinger
	embedding   EmbeddingChecker
	collections CollectionStatus
}

// New creates a Service. embedding and collections can be nil.
func New(db DBPinger, embedding EmbeddingChecker, collections CollectionStatus) *Service {
	return &Service{db: db, embedding: embedding, collections: collections}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	dbOK := s.db.Ping(ctx) == nil
	checks[checkDatabase] = result(dbOK)

	if s.embedding != nil {
		checks[checkEmbedding] = result(s.embedding.HealthCheck(ctx) == nil)
	}

	if s.collections != nil {
		for _, spec := range s.collections.Specs() {
			if !spec.Enabled() {
				continue
			}
			ok, _ := s.collections.Status(spec.Key())
			checks[collectionPrefix+spec.Key()] = result(ok)
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if !dbOK {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
