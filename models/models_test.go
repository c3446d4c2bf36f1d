package models

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestThresholdPolicy(t *testing.T) {
	Convey("When the threshold policy is built", t, func() {
		policy := ThresholdPolicy(20)

		Convey("It covers every reachable state once", func() {
			n := 0
			Visit(func(State) { n++ })
			So(len(policy), ShouldEqual, n)
			So(n, ShouldEqual, 2*(MAX_PLAYER_SUM-MIN_PLAYER_SUM+1)*MAX_DEALER_CARD)
		})

		Convey("It sticks at or above the threshold and hits below it", func() {
			So(policy[State{20, 5, false}], ShouldEqual, Stick)
			So(policy[State{21, 1, true}], ShouldEqual, Stick)
			So(policy[State{19, 10, false}], ShouldEqual, Hit)
			So(policy[State{4, 2, false}], ShouldEqual, Hit)
		})
	})
}

func TestActions(t *testing.T) {
	Convey("When numeric codes are converted to actions", t, func() {
		a, err := ActionFromValue(0)
		So(err, ShouldBeNil)
		So(a, ShouldEqual, Stick)

		a, err = ActionFromValue(1)
		So(err, ShouldBeNil)
		So(a, ShouldEqual, Hit)

		_, err = ActionFromValue(0.5)
		So(errors.Is(err, ErrNonBinaryAction), ShouldBeTrue)
	})

	Convey("When a hit-flag policy is converted", t, func() {
		policy := PolicyFromBools(map[State]bool{
			{14, 3, true}:   true,
			{20, 10, false}: false,
		})
		So(policy[State{14, 3, true}], ShouldEqual, Hit)
		So(policy[State{20, 10, false}], ShouldEqual, Stick)
		So(Hit.String(), ShouldEqual, "HIT")
		So(Stick.String(), ShouldEqual, "STICK")
	})
}

func TestMappingFiles(t *testing.T) {
	Convey("Given a temp dir", t, func() {
		dir := t.TempDir()

		Convey("A saved policy loads back unchanged", func() {
			path := filepath.Join(dir, "policy.yaml")
			policy := ThresholdPolicy(18)
			So(SavePolicy(path, policy), ShouldBeNil)

			loaded, err := LoadPolicy(path)
			So(err, ShouldBeNil)
			So(loaded, ShouldResemble, policy)
		})

		Convey("A values file is read", func() {
			path := filepath.Join(dir, "values.yaml")
			raw := `kind: values
entries:
  - {playerSum: 14, dealerCard: 3, usableAce: true, value: 0.42}
  - {playerSum: 21, dealerCard: 1, usableAce: false, value: -1}
`
			So(os.WriteFile(path, []byte(raw), 0o644), ShouldBeNil)

			values, err := LoadValues(path)
			So(err, ShouldBeNil)
			So(values, ShouldHaveLength, 2)
			So(values[State{14, 3, true}], ShouldEqual, 0.42)
			So(values[State{21, 1, false}], ShouldEqual, -1)
		})

		Convey("A missing value is kept as NaN", func() {
			path := filepath.Join(dir, "values.yaml")
			raw := "kind: values\nentries:\n  - {playerSum: 14, dealerCard: 3, usableAce: true, value: .nan}\n"
			So(os.WriteFile(path, []byte(raw), 0o644), ShouldBeNil)

			values, err := LoadValues(path)
			So(err, ShouldBeNil)
			So(math.IsNaN(values[State{14, 3, true}]), ShouldBeTrue)
		})

		Convey("A file of the wrong kind is rejected", func() {
			path := filepath.Join(dir, "values.yaml")
			So(SaveValues(path, ValueFunction{{13, 2, false}: 0.1}), ShouldBeNil)

			_, err := LoadPolicy(path)
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
		})

		Convey("A policy holding a non-binary code is rejected", func() {
			path := filepath.Join(dir, "policy.yaml")
			raw := "kind: policy\nentries:\n  - {playerSum: 15, dealerCard: 4, usableAce: false, value: 2}\n"
			So(os.WriteFile(path, []byte(raw), 0o644), ShouldBeNil)

			_, err := LoadPolicy(path)
			So(errors.Is(err, ErrNonBinaryAction), ShouldBeTrue)
		})

		Convey("A missing file is an error", func() {
			_, err := LoadValues(filepath.Join(dir, "nope.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
