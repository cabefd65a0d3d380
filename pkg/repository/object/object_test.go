package object

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLocation(t *testing.T) {
	c := qt.New(t)

	c.Check(Location("recordings", "1f0b8d7e/shared_screen.mp4"), qt.Equals, "s3://recordings/1f0b8d7e/shared_screen.mp4")
	c.Check(Location("recordings", "1f0b8d7e/odd name#1.txt"), qt.Equals, "s3://recordings/1f0b8d7e/odd%20name%231.txt")
}

func TestNormalizeETag(t *testing.T) {
	c := qt.New(t)

	c.Check(NormalizeETag(`"d41d8cd98f00b204e9800998ecf8427e"`), qt.Equals, "d41d8cd98f00b204e9800998ecf8427e")
	c.Check(NormalizeETag("abc-3"), qt.Equals, "abc-3")
}
