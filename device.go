package genevector

// Device selects where dense matrix arithmetic runs. DeviceBLAS routes
// gonum through the system BLAS and requires a binary built with the
// netlib tag; see device_netlib.go.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceBLAS Device = "blas"
)

// Set by the netlib build.
var blasAvailable bool
