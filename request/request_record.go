package request

// RequestRecorder receives one record per completed call, successful or not.
type RequestRecorder func(record *RequestRecordData)

type RequestRecordData struct {
	Method         string
	Url            string
	QueryParams    string
	RequestHeaders string
	HttpStatusCode int
	ResponseSize   int
	Error          string
	Duration       int64
}
