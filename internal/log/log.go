package log

const (
	// FldFile is the name of the log field for storing file name information
	FldFile = "file"
	// FldPath is the name of the log field for storing path name information
	FldPath = "path"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldSession is the name of the log field for storing the session ID
	FldSession = "session"
	// FldUser is the name of the log field for storing the ID of the currently active user
	FldUser = "user"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldID is the ID of an entity used in the log entry
	FldID = "id"
	// FldEvent is the ID of the event an operation works on
	FldEvent = "event"
	// FldKind is the interaction kind (like/attend)
	FldKind = "kind"
	// FldKey is a key of the device-local key/value store
	FldKey = "key"
	// FldBackend is the name of the selected storage backend
	FldBackend = "backend"
	// FldDriver is the SQL driver of the remote store
	FldDriver = "driver"
	// FldSearch is a search term used in a search
	FldSearch = "search"
	// FldEmail is an e-mail address
	FldEmail = "email"
	// FldImage is the ID of an uploaded image
	FldImage = "image"
)
