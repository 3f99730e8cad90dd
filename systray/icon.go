package systray

// Icon is a single ARGB32 pixmap of a tray item, in network byte order.
//
// On the bus it is encoded as
//
//	(<width>, <height>, <bytes>)
//
// Where:
//   - <width>: width of the icon (int32)
//   - <height>: height of the icon (int32)
//   - <bytes>: content of the icon ([]byte)
type Icon struct {
	Width  int32
	Height int32
	Bytes  []byte
}

// Tooltip is the ToolTip property of a tray item. Field order matches the
// (sa(iiay)ss) signature expected by hosts.
type Tooltip struct {
	IconName    string
	IconPixmap  []Icon
	Title       string
	Description string
}
