package metadata

import "testing"

func TestNewShotDate_Strict(t *testing.T) {
	cases := []struct {
		y, m, d int
		ok      bool
	}{
		{2019, 5, 1, true},
		{2020, 2, 29, true},
		{2019, 2, 29, false},
		{2019, 4, 31, false},
		{2019, 13, 1, false},
		{2019, 0, 1, false},
		{0, 1, 1, false},
	}
	for _, c := range cases {
		if _, ok := NewShotDate(c.y, c.m, c.d); ok != c.ok {
			t.Errorf("%d-%d-%d: ok=%v, want %v", c.y, c.m, c.d, ok, c.ok)
		}
	}
}

func TestShotDate_OrderAndNames(t *testing.T) {
	a := ShotDate{2019, 5, 1}
	b := ShotDate{2019, 5, 2}
	c := ShotDate{2020, 1, 1}
	if !a.Less(b) || !b.Less(c) || c.Less(a) || a.Less(a) {
		t.Fatalf("ordering broken")
	}
	if a.YearDir() != "19" || a.DirName() != "19_05_01" {
		t.Fatalf("dir names: %s %s", a.YearDir(), a.DirName())
	}
	if (ShotDate{2003, 1, 9}).DirName() != "03_01_09" {
		t.Fatalf("year must be zero padded")
	}
}

func TestDateFromFilename(t *testing.T) {
	cases := map[string]ShotDate{
		"190501102030":        {2019, 5, 1},
		"VID_120501102030":    {2012, 5, 1},
		"Video05011020":       {2015, 5, 1},
		"clip-081224180000-x": {2008, 12, 24},
	}
	for name, want := range cases {
		got, ok := DateFromFilename(name, 2015)
		if !ok || got != want {
			t.Errorf("%s: got %v ok=%v, want %v", name, got, ok, want)
		}
	}

	for _, name := range []string{"IMG_0001", "999999999999", "20190501102030", "Video13011020"} {
		if d, ok := DateFromFilename(name, 2015); ok {
			t.Errorf("%s: unexpected date %v", name, d)
		}
	}
}

func TestDateFromExif(t *testing.T) {
	if d, ok := DateFromExif("2019:05:01 10:20:30"); !ok || d != (ShotDate{2019, 5, 1}) {
		t.Fatalf("got %v %v", d, ok)
	}
	for _, v := range []string{"", "2019:05", "0000:00:00 00:00:00", "2019:02:30 00:00:00", "garbage value"} {
		if _, ok := DateFromExif(v); ok {
			t.Errorf("%q should be rejected", v)
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := map[string]Kind{
		".jpg": Photo, ".JPEG": Photo, ".mov": Video, ".3GP": Video, ".mp4": Video,
		".png": Other, "": Other,
	}
	for suffix, want := range cases {
		if got := KindOf(suffix); got != want {
			t.Errorf("%q: got %v, want %v", suffix, got, want)
		}
	}
}
