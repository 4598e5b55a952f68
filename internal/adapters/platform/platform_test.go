package platform_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/courseops/regrade/internal/adapters/platform"
	"github.com/courseops/regrade/internal/domain/model"
	"github.com/courseops/regrade/internal/domain/scan"
	"github.com/courseops/regrade/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const testToken = "test-token"

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newClient points a fast-retrying client at the test server.
func newClient(srv *httptest.Server, opts ...platform.Option) *platform.Client {
	opts = append([]platform.Option{platform.WithRetryDelay(time.Millisecond)}, opts...)
	return platform.NewClient(srv.URL, testToken, opts...)
}

func TestClientGet(t *testing.T) {
	Convey("Given a platform API endpoint", t, func() {
		ctx := context.Background()

		Convey("When the server answers 200", func() {
			var gotToken atomic.Value
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotToken.Store(r.Header.Get("Private-Token"))
				fmt.Fprint(w, `{"value": 7}`)
			}))
			defer srv.Close()

			var out struct {
				Value int `json:"value"`
			}
			err := newClient(srv).Get(ctx, "/ping", &out)

			Convey("Then the body decodes and the token travels in the header", func() {
				So(err, ShouldBeNil)
				So(out.Value, ShouldEqual, 7)
				So(gotToken.Load(), ShouldEqual, testToken)
			})
		})

		Convey("When the server answers 502 before recovering", func() {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if attempts.Add(1) <= 2 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				fmt.Fprint(w, `{"value": 7}`)
			}))
			defer srv.Close()

			var out struct {
				Value int `json:"value"`
			}
			err := newClient(srv).Get(ctx, "/flaky", &out)

			Convey("Then the request is retried to success", func() {
				So(err, ShouldBeNil)
				So(out.Value, ShouldEqual, 7)
				So(attempts.Load(), ShouldEqual, 3)
			})
		})

		Convey("When the server never stops answering 502", func() {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer srv.Close()

			var out any
			err := newClient(srv, platform.WithRetryMax(3)).Get(ctx, "/down", &out)

			Convey("Then the retry budget bounds the attempts", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, platform.ErrRetryExhausted), ShouldBeTrue)
				So(attempts.Load(), ShouldEqual, 3)
			})
		})

		Convey("When the server answers any other failure status", func() {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(http.StatusForbidden)
			}))
			defer srv.Close()

			var out any
			err := newClient(srv).Get(ctx, "/forbidden", &out)

			Convey("Then it fails immediately without retrying", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, platform.ErrUnexpectedStatus), ShouldBeTrue)
				So(attempts.Load(), ShouldEqual, 1)
			})
		})
	})
}

// courseServer serves the course-scoped endpoints used by the Course
// tests from a static handler table keyed by path suffix.
func courseServer(routes map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for suffix, body := range routes {
			if r.URL.Path == "/pl/api/v1"+suffix {
				fmt.Fprint(w, body)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestCourseResolve(t *testing.T) {
	Convey("Given a course with two assessments", t, func() {
		ctx := context.Background()
		srv := courseServer(map[string]string{
			"/course_instances/ci1/assessments": `[
				{"assessment_id": 11, "assessment_name": "HW1"},
				{"assessment_id": 12, "assessment_name": "HW2"}
			]`,
		})
		defer srv.Close()
		course := platform.NewCourse(newClient(srv), "ci1")

		Convey("A name selector resolves", func() {
			id, err := course.Resolve(ctx, "HW2")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, 12)
		})

		Convey("A stringified id selector resolves", func() {
			id, err := course.Resolve(ctx, "11")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, 11)
		})

		Convey("An unknown selector is rejected", func() {
			_, err := course.Resolve(ctx, "HW9")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, platform.ErrUnknownAssessment), ShouldBeTrue)
		})
	})
}

func TestCourseAssessmentType(t *testing.T) {
	Convey("Given the assessment detail endpoint", t, func() {
		ctx := context.Background()

		Convey("A known type parses", func() {
			srv := courseServer(map[string]string{
				"/course_instances/ci1/assessments/11": `{"type": "Homework"}`,
			})
			defer srv.Close()

			at, err := platform.NewCourse(newClient(srv), "ci1").AssessmentType(ctx, 11)
			So(err, ShouldBeNil)
			So(at, ShouldEqual, model.TypeHomework)
		})

		Convey("An unknown type is rejected", func() {
			srv := courseServer(map[string]string{
				"/course_instances/ci1/assessments/11": `{"type": "Quiz"}`,
			})
			defer srv.Close()

			_, err := platform.NewCourse(newClient(srv), "ci1").AssessmentType(ctx, 11)
			So(errors.Is(err, model.ErrUnknownAssessmentType), ShouldBeTrue)
		})
	})
}

func TestCourseDueDate(t *testing.T) {
	Convey("Given the access rules of an assessment", t, func() {
		ctx := context.Background()

		Convey("When several public full-credit rules exist", func() {
			srv := courseServer(map[string]string{
				"/course_instances/ci1/assessments/11/assessment_access_rules": `[
					{"mode": "Public", "credit": 100, "end_date": "2024-03-01T23:59:00Z"},
					{"mode": "Public", "credit": 100, "end_date": "2024-03-03T23:59:00Z"},
					{"mode": "Public", "credit": 50,  "end_date": "2024-03-10T23:59:00Z"},
					{"mode": "Exam",   "credit": 100, "end_date": "2024-03-20T23:59:00Z"}
				]`,
			})
			defer srv.Close()

			due, err := platform.NewCourse(newClient(srv), "ci1").DueDate(ctx, 11)

			Convey("Then the latest qualifying end date wins", func() {
				So(err, ShouldBeNil)
				So(due.Equal(time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When no public full-credit rule exists", func() {
			srv := courseServer(map[string]string{
				"/course_instances/ci1/assessments/11/assessment_access_rules": `[
					{"mode": "Exam", "credit": 100, "end_date": "2024-03-20T23:59:00Z"}
				]`,
			})
			defer srv.Close()

			_, err := platform.NewCourse(newClient(srv), "ci1").DueDate(ctx, 11)
			So(errors.Is(err, platform.ErrNoDueDateRule), ShouldBeTrue)
		})
	})
}

func TestCourseInstanceLog(t *testing.T) {
	Convey("Given an assessment instance's grading log", t, func() {
		ctx := context.Background()

		Convey("When the log covers every event kind", func() {
			srv := courseServer(map[string]string{
				"/course_instances/ci1/assessment_instances/5/log": `[
					{"event_name": "Submission", "date_iso8601": "2024-03-01T09:00:00Z", "qid": "q1", "auth_user_uid": "dev@example.com"},
					{"event_name": "Score question", "date_iso8601": "2024-03-01T10:00:00Z", "qid": "q1", "auth_user_uid": "ta@example.com", "data": {"points": 8}},
					{"event_name": "Score assessment", "date_iso8601": "2024-03-01T10:00:01Z", "auth_user_uid": "dev@example.com", "data": {"points": 90}},
					{"event_name": "Manual grading result", "date_iso8601": "2024-03-02T10:00:00Z", "qid": "q1", "auth_user_uid": "ta@example.com", "data": {"points": 8, "manual_points": 5}},
					{"event_name": "View assessment", "date_iso8601": "2024-03-01T08:00:00Z", "auth_user_uid": "dev@example.com"}
				]`,
			})
			defer srv.Close()

			events, err := platform.NewCourse(newClient(srv), "ci1").InstanceLog(ctx, 5)

			Convey("Then each entry maps to its kind", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 5)
				So(events[0].Kind, ShouldEqual, model.KindSubmission)
				So(events[1].Kind, ShouldEqual, model.KindScoreQuestion)
				So(events[1].Points, ShouldEqual, 8)
				So(events[1].Actor, ShouldEqual, "ta@example.com")
				So(events[2].Kind, ShouldEqual, model.KindScoreAssessment)
				So(events[2].Points, ShouldEqual, 90)
				So(events[3].Kind, ShouldEqual, model.KindManualGradingResult)
				So(events[3].Points, ShouldEqual, 5) // manual_points, not points
				So(events[4].Kind, ShouldEqual, model.KindOther)
			})
		})

		Convey("When a scoring entry is missing its points", func() {
			srv := courseServer(map[string]string{
				"/course_instances/ci1/assessment_instances/5/log": `[
					{"event_name": "Score assessment", "date_iso8601": "2024-03-01T10:00:00Z", "data": {}}
				]`,
			})
			defer srv.Close()

			_, err := platform.NewCourse(newClient(srv), "ci1").InstanceLog(ctx, 5)
			So(errors.Is(err, scan.ErrMalformedEvent), ShouldBeTrue)
		})

		Convey("When an entry carries a bad timestamp", func() {
			srv := courseServer(map[string]string{
				"/course_instances/ci1/assessment_instances/5/log": `[
					{"event_name": "Submission", "date_iso8601": "yesterday", "qid": "q1"}
				]`,
			})
			defer srv.Close()

			_, err := platform.NewCourse(newClient(srv), "ci1").InstanceLog(ctx, 5)
			So(errors.Is(err, scan.ErrMalformedEvent), ShouldBeTrue)
		})
	})
}

func TestCourseInstancesAndGradebook(t *testing.T) {
	Convey("Given course-wide listings", t, func() {
		ctx := context.Background()
		srv := courseServer(map[string]string{
			"/course_instances/ci1/assessments/11/assessment_instances": `[
				{"user_uid": "a@example.com", "assessment_instance_id": 101},
				{"user_uid": "b@example.com", "assessment_instance_id": 102}
			]`,
			"/course_instances/ci1/gradebook": `[
				{"user_uid": "a@example.com", "assessments": [
					{"assessment_id": 11, "score_perc": 87.5},
					{"assessment_id": 12, "score_perc": 10}
				]},
				{"user_uid": "b@example.com", "assessments": [
					{"assessment_id": 12, "score_perc": 40}
				]}
			]`,
		})
		defer srv.Close()
		course := platform.NewCourse(newClient(srv), "ci1")

		Convey("Instances maps uid to instance id", func() {
			instances, err := course.Instances(ctx, 11)
			So(err, ShouldBeNil)
			So(instances, ShouldHaveLength, 2)
			So(instances["a@example.com"], ShouldEqual, 101)
			So(instances["b@example.com"], ShouldEqual, 102)
		})

		Convey("GradebookScores keeps only the requested assessment", func() {
			scores, err := course.GradebookScores(ctx, 11)
			So(err, ShouldBeNil)
			So(scores, ShouldHaveLength, 1)
			So(scores["a@example.com"], ShouldEqual, 87.5)
		})
	})
}

func TestCourseInstanceQuestions(t *testing.T) {
	Convey("Given the instance question listing", t, func() {
		ctx := context.Background()
		srv := courseServer(map[string]string{
			"/course_instances/ci1/assessment_instances/5/instance_questions": `[
				{"question_name": "q1", "assessment_question_max_points": 10, "assessment_question_max_manual_points": 10},
				{"question_name": "q2", "assessment_question_max_points": 90}
			]`,
		})
		defer srv.Close()

		questions, err := platform.NewCourse(newClient(srv), "ci1").InstanceQuestions(ctx, 5)

		So(err, ShouldBeNil)
		So(questions, ShouldHaveLength, 2)
		So(questions[0].ID, ShouldEqual, "q1")
		So(questions[0].ManuallyGraded(), ShouldBeTrue)
		So(questions[1].MaxPoints, ShouldEqual, 90)
	})
}
