package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/courseops/regrade/internal/adapters/platform"
	"github.com/courseops/regrade/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestStdinConfirmer(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	convey.Convey("Given a computed deadline", t, func() {
		ctx := context.Background()
		computed := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)

		convey.Convey("When the operator accepts with Y", func() {
			var out bytes.Buffer
			c := &stdinConfirmer{in: strings.NewReader("Y\n"), out: &out}

			got, err := c.Confirm(ctx, "orig due date", computed)

			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Equal(computed), convey.ShouldBeTrue)
			convey.So(out.String(), convey.ShouldContainSubstring, "orig due date")
		})

		convey.Convey("When the operator accepts with lowercase y", func() {
			var out bytes.Buffer
			c := &stdinConfirmer{in: strings.NewReader("y\n"), out: &out}

			got, err := c.Confirm(ctx, "orig due date", computed)

			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Equal(computed), convey.ShouldBeTrue)
		})

		convey.Convey("When the operator types an override", func() {
			var out bytes.Buffer
			c := &stdinConfirmer{in: strings.NewReader("2024-03-02 10:30:00\n"), out: &out}

			got, err := c.Confirm(ctx, "orig due date", computed)

			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Equal(time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC)), convey.ShouldBeTrue)

			convey.Convey("And the override keeps the computed location", func() {
				convey.So(got.Location(), convey.ShouldEqual, computed.Location())
			})
		})

		convey.Convey("When the first input is garbage", func() {
			var out bytes.Buffer
			c := &stdinConfirmer{in: strings.NewReader("tomorrow\nY\n"), out: &out}

			got, err := c.Confirm(ctx, "orig due date", computed)

			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Equal(computed), convey.ShouldBeTrue)
			convey.So(out.String(), convey.ShouldContainSubstring, "Invalid format")
		})

		convey.Convey("When the input closes without an answer", func() {
			var out bytes.Buffer
			c := &stdinConfirmer{in: strings.NewReader(""), out: &out}

			_, err := c.Confirm(ctx, "orig due date", computed)

			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestChooseAssessment(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pl/api/v1/course_instances/ci1/assessments" {
			fmt.Fprint(w, `[
				{"assessment_id": 11, "assessment_name": "HW1"},
				{"assessment_id": 12, "assessment_name": "HW2"}
			]`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := platform.NewClient(srv.URL, "tok", platform.WithRetryDelay(time.Millisecond))
	course := platform.NewCourse(client, "ci1")

	convey.Convey("Given the course's assessment listing", t, func() {
		ctx := context.Background()

		convey.Convey("A known name is accepted", func() {
			var out bytes.Buffer
			selector, err := chooseAssessment(ctx, course, strings.NewReader("HW2\n"), &out)

			convey.So(err, convey.ShouldBeNil)
			convey.So(selector, convey.ShouldEqual, "HW2")
			convey.So(out.String(), convey.ShouldContainSubstring, "id: 11, name: HW1")
		})

		convey.Convey("A known id is accepted", func() {
			var out bytes.Buffer
			selector, err := chooseAssessment(ctx, course, strings.NewReader("12\n"), &out)

			convey.So(err, convey.ShouldBeNil)
			convey.So(selector, convey.ShouldEqual, "12")
		})

		convey.Convey("An unknown entry reprompts until a valid one", func() {
			var out bytes.Buffer
			selector, err := chooseAssessment(ctx, course, strings.NewReader("HW9\nHW1\n"), &out)

			convey.So(err, convey.ShouldBeNil)
			convey.So(selector, convey.ShouldEqual, "HW1")
			convey.So(out.String(), convey.ShouldContainSubstring, "Invalid assessment name or id")
		})
	})
}
