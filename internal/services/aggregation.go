package services

import (
	"math"
	"sort"

	"github.com/lessonlens/observation-service/internal/models"
)

// ===== AGGREGATE BUCKETS =====

// AggregateBucket is one grouped subset of observations sharing a dimension
// value. Buckets are built fresh per aggregation call and never persisted.
type AggregateBucket struct {
	Key       string
	Scores    []float64
	Grades    models.GradeCounts
	MemberIDs map[string]struct{}
	Total     int
}

// Average returns the mean resolved score of the bucket. The divisor counts
// only gradeable records, so an ungraded record never drags the mean toward
// a phantom zero. Empty or fully ungraded buckets average to 0.
func (b *AggregateBucket) Average() float64 {
	if len(b.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range b.Scores {
		sum += s
	}
	return sum / float64(len(b.Scores))
}

// Gradeable returns the number of records in the bucket with a real score.
func (b *AggregateBucket) Gradeable() int {
	return len(b.Scores)
}

// GroupKeyFunc derives the bucket key for a record.
type GroupKeyFunc func(*models.Observation) string

// AggregateBy partitions records into buckets by keyFn. Every record counts
// toward its bucket's Total; only gradeable records contribute a score and a
// grade tally. An empty input yields an empty map, not an error.
func AggregateBy(records []*models.Observation, keyFn GroupKeyFunc) map[string]*AggregateBucket {
	buckets := make(map[string]*AggregateBucket)

	for _, record := range records {
		key := keyFn(record)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &AggregateBucket{
				Key:       key,
				MemberIDs: make(map[string]struct{}),
			}
			buckets[key] = bucket
		}

		bucket.Total++
		bucket.MemberIDs[record.ID] = struct{}{}

		if score := record.ResolvedScore(); score > 0 {
			bucket.Scores = append(bucket.Scores, score)
			bucket.Grades.Add(record.EffectiveGrade())
		}
	}

	return buckets
}

// SortedBuckets returns the buckets ordered by key for deterministic output.
func SortedBuckets(buckets map[string]*AggregateBucket) []*AggregateBucket {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]*AggregateBucket, 0, len(keys))
	for _, key := range keys {
		out = append(out, buckets[key])
	}
	return out
}

// ===== GROUP KEY FUNCTIONS =====

func GroupBySubject(o *models.Observation) string    { return o.Subject }
func GroupByKeyStage(o *models.Observation) string   { return o.KeyStage }
func GroupByDepartment(o *models.Observation) string { return o.Department }
func GroupByTeacher(o *models.Observation) string    { return o.TeacherID }
func GroupByObserver(o *models.Observation) string   { return o.ObserverID }

func GroupByType(o *models.Observation) string {
	return string(o.ObservationType)
}

// GroupByDate buckets by calendar day in UTC.
func GroupByDate(o *models.Observation) string {
	return o.ObservationDate.UTC().Format(dateBucketLayout)
}

const dateBucketLayout = "2006-01-02"

// ===== PERCENTAGES =====

// GradePercentages computes each grade's share of the gradeable records in
// the supplied counts. The denominator is the visible gradeable subset, not
// the raw total, so shares always close to 100 for whatever subset the
// caller has toggled on. A subset with no gradeable records yields zeros.
func GradePercentages(counts models.GradeCounts) map[models.Grade]float64 {
	percentages := map[models.Grade]float64{
		models.GradeOutstanding:         0,
		models.GradeGood:                0,
		models.GradeRequiresImprovement: 0,
		models.GradeInadequate:          0,
	}

	gradeable := counts.Gradeable()
	if gradeable == 0 {
		return percentages
	}

	total := float64(gradeable)
	percentages[models.GradeOutstanding] = round1(float64(counts.Outstanding) / total * 100)
	percentages[models.GradeGood] = round1(float64(counts.Good) / total * 100)
	percentages[models.GradeRequiresImprovement] = round1(float64(counts.RequiresImprovement) / total * 100)
	percentages[models.GradeInadequate] = round1(float64(counts.Inadequate) / total * 100)
	return percentages
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
