package appmessage

// Keys understood by the watchface. The strings are resolved to numeric ids by
// the phone-side runtime, so they must match the app manifest exactly.
const (
	KeyTextTime        = "KEY_TEXT_TIME"
	KeyHandOrder       = "KEY_HAND_ORDER"
	KeyInvert          = "KEY_INVERT"
	KeyInvertStart     = "KEY_INVERT_START"
	KeyInvertStartMin  = "KEY_INVERT_START_MIN"
	KeyInvertStartHour = "KEY_INVERT_START_HOUR"
	KeyInvertEnd       = "KEY_INVERT_END"
	KeyInvertEndMin    = "KEY_INVERT_END_MIN"
	KeyInvertEndHour   = "KEY_INVERT_END_HOUR"
	KeyUpdateSunTimes  = "KEY_UPDATE_SUNTIMES"
)
