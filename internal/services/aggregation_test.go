package services

import (
	"testing"
	"time"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAggregateBy_UngradedExcludedFromAverage(t *testing.T) {
	// One Outstanding, one Good, one Inadequate and one ungraded walk-through.
	// The ungraded record counts toward the total but never the average.
	records := []*models.Observation{
		gradedObservation("o1", "t1", "Maths", models.GradeOutstanding, 0),
		gradedObservation("o2", "t1", "Maths", models.GradeGood, 1),
		gradedObservation("o3", "t1", "Maths", models.GradeInadequate, 2),
		ungradedObservation("o4", "t1", "Maths", 3),
	}

	buckets := AggregateBy(records, GroupBySubject)

	bucket, ok := buckets["Maths"]
	if !ok {
		t.Fatal("Expected a Maths bucket")
	}

	assert.Equal(t, 4, bucket.Total)
	assert.Equal(t, 3, bucket.Gradeable())
	assert.InDelta(t, (4.0+3.0+1.0)/3.0, bucket.Average(), 0.001)
	assert.InDelta(t, 2.67, round2(bucket.Average()), 0.001)
}

func TestAggregateBy_FullyUngradedBucketAveragesToZero(t *testing.T) {
	records := []*models.Observation{
		ungradedObservation("o1", "t1", "Art", 0),
		ungradedObservation("o2", "t2", "Art", 1),
	}

	buckets := AggregateBy(records, GroupBySubject)

	bucket := buckets["Art"]
	assert.Equal(t, 2, bucket.Total)
	assert.Equal(t, 0, bucket.Gradeable())
	assert.Equal(t, 0.0, bucket.Average())
}

func TestAggregateBy_EmptyInput(t *testing.T) {
	buckets := AggregateBy(nil, GroupBySubject)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestAggregateBy_ExplicitScoreTakesPrecedence(t *testing.T) {
	record := gradedObservation("o1", "t1", "Maths", models.GradeGood, 0)
	record.OverallScore = scorePtr(3.6)

	buckets := AggregateBy([]*models.Observation{record}, GroupBySubject)

	bucket := buckets["Maths"]
	assert.InDelta(t, 3.6, bucket.Average(), 0.001)
	// The recorded grade still drives the tally, not the score band.
	assert.Equal(t, 1, bucket.Grades.Good)
	assert.Equal(t, 0, bucket.Grades.Outstanding)
}

func TestAggregateBy_EveryRecordLandsInExactlyOneBucket(t *testing.T) {
	records := []*models.Observation{
		gradedObservation("o1", "t1", "Maths", models.GradeGood, 0),
		gradedObservation("o2", "t2", "English", models.GradeOutstanding, 0),
		gradedObservation("o3", "t3", "Maths", models.GradeInadequate, 1),
		ungradedObservation("o4", "t4", "Science", 2),
	}

	buckets := AggregateBy(records, GroupBySubject)

	total := 0
	for _, bucket := range buckets {
		total += bucket.Total
	}
	assert.Equal(t, len(records), total)
	assert.Len(t, buckets, 3)
}

func TestSortedBuckets_DeterministicOrder(t *testing.T) {
	records := []*models.Observation{
		gradedObservation("o1", "t1", "Science", models.GradeGood, 0),
		gradedObservation("o2", "t2", "English", models.GradeGood, 0),
		gradedObservation("o3", "t3", "Maths", models.GradeGood, 0),
	}

	ordered := SortedBuckets(AggregateBy(records, GroupBySubject))

	keys := make([]string, 0, len(ordered))
	for _, bucket := range ordered {
		keys = append(keys, bucket.Key)
	}
	assert.Equal(t, []string{"English", "Maths", "Science"}, keys)
}

func TestGroupByDate_BucketsByUTCDay(t *testing.T) {
	record := &models.Observation{
		ID:              "o1",
		ObservationDate: time.Date(2025, 9, 2, 23, 30, 0, 0, time.FixedZone("BST", 3600)),
	}

	// 23:30 BST is 22:30 UTC, still the 2nd.
	assert.Equal(t, "2025-09-02", GroupByDate(record))
}

func TestGradePercentages_CloseOverGradeableSubset(t *testing.T) {
	counts := models.GradeCounts{Outstanding: 1, Good: 2, Inadequate: 1}

	percentages := GradePercentages(counts)

	assert.InDelta(t, 25.0, percentages[models.GradeOutstanding], 0.001)
	assert.InDelta(t, 50.0, percentages[models.GradeGood], 0.001)
	assert.InDelta(t, 0.0, percentages[models.GradeRequiresImprovement], 0.001)
	assert.InDelta(t, 25.0, percentages[models.GradeInadequate], 0.001)

	sum := 0.0
	for _, share := range percentages {
		sum += share
	}
	assert.InDelta(t, 100.0, sum, 0.001)
}

func TestGradePercentages_NoGradeableRecords(t *testing.T) {
	percentages := GradePercentages(models.GradeCounts{})

	for grade, share := range percentages {
		assert.Equalf(t, 0.0, share, "expected zero share for %s", grade)
	}
	assert.Len(t, percentages, 4)
}
