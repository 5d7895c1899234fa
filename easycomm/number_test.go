package easycomm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/w1xm/azel_rotator/rotator"
)

func TestParseNumber(t *testing.T) {
	for _, test := range []struct {
		in   string
		want rotator.Tenths
		err  error
	}{
		{"045.0", 450, nil},
		{"45.0", 450, nil},
		{"-238.0", -2380, nil},
		{"+1.5", 15, nil},
		{"0.6", 6, nil},
		{"-0.5", -5, nil},
		{"99999.9", 999999, nil},
		{"999999.9", 0, ErrNumberTooLong},
		{"45", 0, ErrNoDecimalPoint},
		{"4.50", 0, ErrNoDecimalPoint},
		{"", 0, ErrNoDecimalPoint},
		{".5", 0, ErrNotANumber},
		{"-.5", 0, ErrNotANumber},
		{"4a.0", 0, ErrNotANumber},
		{"45.x", 0, ErrNotANumber},
		{"--1.0", 0, ErrNotANumber},
	} {
		got, err := ParseNumber([]byte(test.in))
		assert.Equal(t, test.err, err, "ParseNumber(%q)", test.in)
		assert.Equal(t, test.want, got, "ParseNumber(%q)", test.in)
	}
}

func TestFormatNumber(t *testing.T) {
	for _, test := range []struct {
		in   rotator.Tenths
		want string
		err  error
	}{
		{0, "0.0", nil},
		{5, "0.5", nil},
		{-5, "-0.5", nil},
		{123, "12.3", nil},
		{-2380, "-238.0", nil},
		{3599, "359.9", nil},
		{999999, "99999.9", nil},
		{-99999, "-9999.9", nil},
		{1000000, "", ErrNumberTooLong},
		{-100000, "", ErrNumberTooLong},
	} {
		got, err := FormatNumber(test.in)
		assert.Equal(t, test.err, err, "FormatNumber(%d)", test.in)
		assert.Equal(t, test.want, got, "FormatNumber(%d)", test.in)
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for _, v := range []rotator.Tenths{-99999, -2380, -10, -1, 0, 1, 9, 10, 450, 999999} {
		s, err := FormatNumber(v)
		assert.NoError(t, err)
		got, err := ParseNumber([]byte(s))
		assert.NoError(t, err)
		assert.Equal(t, v, got, "round trip through %q", s)
	}
}
