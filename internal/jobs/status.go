package jobs

import (
	"hash/fnv"
	"sync"
	"time"
)

// Step is the lifecycle step of an import job. Transitions are strictly
// forward: INIT -> PREFETCH -> PROCESSING -> COMMIT -> COMPLETE | FAILED.
type Step string

const (
	StepInit       Step = "INIT"
	StepPrefetch   Step = "PREFETCH"
	StepProcessing Step = "PROCESSING"
	StepCommit     Step = "COMMIT"
	StepComplete   Step = "COMPLETE"
	StepFailed     Step = "FAILED"
)

// Terminal reports whether no further transition can happen from s.
func (s Step) Terminal() bool {
	return s == StepComplete || s == StepFailed
}

// Result is the terminal aggregate of a finished job, immutable once set.
type Result struct {
	Processed   int64
	Inserted    int64
	Failed      int64
	ErrorReport string
	Summary     map[string]int64
}

// Status is the latest lifecycle snapshot of a job.
type Status struct {
	Step          Step
	Message       string
	RowsProcessed int64
	RowsTotal     int64
	Result        *Result
	UpdatedAt     time.Time
}

const shardCount = 32

// StatusStore holds the latest snapshot per job id. It is sharded so status
// queries for unrelated jobs never contend on one lock: each job's writes
// come from its single background task, reads come from arbitrary concurrent
// status queries.
type StatusStore struct {
	shards [shardCount]statusShard
}

type statusShard struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

func NewStatusStore() *StatusStore {
	s := &StatusStore{}
	for i := range s.shards {
		s.shards[i].statuses = make(map[string]Status)
	}
	return s
}

func (s *StatusStore) shard(id string) *statusShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.shards[h.Sum32()%shardCount]
}

// Set records the snapshot for id, stamping it with the current time.
func (s *StatusStore) Set(id string, status Status) {
	status.UpdatedAt = time.Now()

	shard := s.shard(id)
	shard.mu.Lock()
	shard.statuses[id] = status
	shard.mu.Unlock()
}

// Get returns the snapshot for id, or false when the id is unknown or has
// been evicted.
func (s *StatusStore) Get(id string) (Status, bool) {
	shard := s.shard(id)
	shard.mu.RLock()
	status, ok := shard.statuses[id]
	shard.mu.RUnlock()
	return status, ok
}

func (s *StatusStore) Delete(id string) {
	shard := s.shard(id)
	shard.mu.Lock()
	delete(shard.statuses, id)
	shard.mu.Unlock()
}

func (s *StatusStore) Len() int {
	count := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		count += len(s.shards[i].statuses)
		s.shards[i].mu.RUnlock()
	}
	return count
}

// Range calls fn for every stored snapshot until fn returns false. Snapshots
// are copied out under the shard lock; fn runs without any lock held.
func (s *StatusStore) Range(fn func(id string, status Status) bool) {
	for i := range s.shards {
		shard := &s.shards[i]

		shard.mu.RLock()
		ids := make([]string, 0, len(shard.statuses))
		snapshots := make([]Status, 0, len(shard.statuses))
		for id, status := range shard.statuses {
			ids = append(ids, id)
			snapshots = append(snapshots, status)
		}
		shard.mu.RUnlock()

		for j := range ids {
			if !fn(ids[j], snapshots[j]) {
				return
			}
		}
	}
}
