// Package route models openpilot routes and their segments.
//
// A route is a single drive recorded by a device (the dongle). It is split
// into fixed 60 second segments numbered from 0, and every segment has up to
// four uploaded files:
//
//	cameras   fcamera.hevc  forward road camera
//	ecameras  ecamera.hevc  wide road camera
//	dcameras  dcamera.hevc  driver camera
//	logs      rlog.bz2      compressed raw log
//
// # Usage
//
//	r, err := route.Parse("a2a0ccea32023010|2023-07-27--13-01-19--5")
//	// r.String() == "a2a0ccea32023010|2023-07-27--13-01-19"
//
//	segments, err := route.Segments(route.Window{Smear: 5, Start: 400, Length: 60})
//	// [6 7]
//
//	layout := route.Layout{DataDir: "/data", Route: r}
//	layout.Path(6, "fcamera.hevc")
//	// /data/2023-07-27--13-01-19--6/fcamera.hevc
package route
