package main

// Keyboard grid adjacency, indexed by KeyboardKey.

var keyLeftWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyDelete, KeyEscape, KeyF1, KeyF2, KeyF3, KeyF4, KeyF5,
	KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12, KeyInsert,
	KeyPrintScreen, KeyHome, KeyBacktick, Key1, Key2, Key3, Key4, Key5,
	Key6, Key7, Key8, Key9, Key0, KeyMinus, KeyEquals, KeyBackspace,
	KeyPageUp, KeyTab, KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY,
	KeyU, KeyI, KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyHash, KeyPageDown,
	KeyCapsLock, KeyA, KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ,
	KeyK, KeyL, KeySemicolon, KeyApostrophe, KeyEnter, KeyEnd, KeyLeftShift, KeyBackslash,
	KeyZ, KeyX, KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma,
	KeyDot, KeySlash, KeyRightShift, KeyUp, KeyRight, KeyLeftCtrl, KeyLeftMeta, KeyLeftAlt,
	KeySpace, KeyRightAlt, KeyRightMeta, KeyMenu, KeyRightCtrl, KeyLeft, KeyDown,
}

var keyLeftNoWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyNone, KeyEscape, KeyF1, KeyF2, KeyF3, KeyF4, KeyF5,
	KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12, KeyInsert,
	KeyPrintScreen, KeyNone, KeyBacktick, Key1, Key2, Key3, Key4, Key5,
	Key6, Key7, Key8, Key9, Key0, KeyMinus, KeyEquals, KeyBackspace,
	KeyNone, KeyTab, KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY,
	KeyU, KeyI, KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyHash, KeyNone,
	KeyCapsLock, KeyA, KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ,
	KeyK, KeyL, KeySemicolon, KeyApostrophe, KeyEnter, KeyNone, KeyLeftShift, KeyBackslash,
	KeyZ, KeyX, KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma,
	KeyDot, KeySlash, KeyRightShift, KeyUp, KeyNone, KeyLeftCtrl, KeyLeftMeta, KeyLeftAlt,
	KeySpace, KeyRightAlt, KeyRightMeta, KeyMenu, KeyRightCtrl, KeyLeft, KeyDown,
}

var keyRightWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7,
	KeyF8, KeyF9, KeyF10, KeyF11, KeyF12, KeyInsert, KeyPrintScreen, KeyDelete,
	KeyEscape, Key1, Key2, Key3, Key4, Key5, Key6, Key7,
	Key8, Key9, Key0, KeyMinus, KeyEquals, KeyBackspace, KeyHome, KeyBacktick,
	KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY, KeyU, KeyI,
	KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyHash, KeyPageUp, KeyTab, KeyA,
	KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ, KeyK, KeyL,
	KeySemicolon, KeyApostrophe, KeyEnter, KeyPageDown, KeyCapsLock, KeyBackslash, KeyZ, KeyX,
	KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma, KeyDot, KeySlash,
	KeyRightShift, KeyUp, KeyEnd, KeyLeftShift, KeyLeftMeta, KeyLeftAlt, KeySpace, KeyRightAlt,
	KeyRightMeta, KeyMenu, KeyRightCtrl, KeyLeft, KeyDown, KeyRight, KeyLeftCtrl,
}

var keyRightNoWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7,
	KeyF8, KeyF9, KeyF10, KeyF11, KeyF12, KeyInsert, KeyPrintScreen, KeyDelete,
	KeyNone, Key1, Key2, Key3, Key4, Key5, Key6, Key7,
	Key8, Key9, Key0, KeyMinus, KeyEquals, KeyBackspace, KeyHome, KeyNone,
	KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY, KeyU, KeyI,
	KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyHash, KeyPageUp, KeyNone, KeyA,
	KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ, KeyK, KeyL,
	KeySemicolon, KeyApostrophe, KeyEnter, KeyPageDown, KeyNone, KeyBackslash, KeyZ, KeyX,
	KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma, KeyDot, KeySlash,
	KeyRightShift, KeyUp, KeyEnd, KeyNone, KeyLeftMeta, KeyLeftAlt, KeySpace, KeyRightAlt,
	KeyRightMeta, KeyMenu, KeyRightCtrl, KeyLeft, KeyDown, KeyRight, KeyNone,
}

var keyUpWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyLeftCtrl, KeyLeftCtrl, KeyLeftMeta, KeyLeftAlt, KeySpace, KeySpace, KeySpace,
	KeySpace, KeySpace, KeyRightAlt, KeyRightMeta, KeyMenu, KeyRightCtrl, KeyLeft, KeyDown,
	KeyRight, KeyEscape, KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6,
	KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12, KeyInsert, KeyDelete,
	KeyBacktick, Key2, Key3, Key4, Key5, Key6, Key7, Key8,
	Key9, Key0, KeyMinus, KeyEquals, KeyBackspace, KeyBackspace, KeyHome, KeyTab,
	KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY, KeyU, KeyI,
	KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyPageUp, KeyCapsLock, KeyCapsLock, KeyA,
	KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ, KeyK, KeyL,
	KeySemicolon, KeyApostrophe, KeyEnter, KeyPageDown, KeyLeftShift, KeyZ, KeyX, KeyB,
	KeyComma, KeyDot, KeySlash, KeyRightShift, KeyRightShift, KeyUp, KeyEnd,
}

var keyUpNoWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone,
	KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone,
	KeyNone, KeyEscape, KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6,
	KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12, KeyInsert, KeyDelete,
	KeyBacktick, Key2, Key3, Key4, Key5, Key6, Key7, Key8,
	Key9, Key0, KeyMinus, KeyEquals, KeyBackspace, KeyBackspace, KeyHome, KeyTab,
	KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY, KeyU, KeyI,
	KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyPageUp, KeyCapsLock, KeyCapsLock, KeyA,
	KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ, KeyK, KeyL,
	KeySemicolon, KeyApostrophe, KeyEnter, KeyPageDown, KeyLeftShift, KeyZ, KeyX, KeyB,
	KeyComma, KeyDot, KeySlash, KeyRightShift, KeyRightShift, KeyUp, KeyEnd,
}

var keyDownWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyBacktick, Key1, Key2, Key3, Key4, Key5, Key6,
	Key7, Key8, Key9, Key0, KeyMinus, KeyEquals, KeyBackspace, KeyBackspace,
	KeyHome, KeyTab, KeyTab, KeyQ, KeyW, KeyE, KeyR, KeyT,
	KeyY, KeyU, KeyI, KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyPageUp,
	KeyCapsLock, KeyA, KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ,
	KeyK, KeyL, KeySemicolon, KeyApostrophe, KeyEnter, KeyEnter, KeyPageDown, KeyLeftShift,
	KeyZ, KeyX, KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma,
	KeyDot, KeySlash, KeyRightShift, KeyUp, KeyEnd, KeyLeftCtrl, KeyLeftCtrl, KeyLeftMeta,
	KeyLeftAlt, KeySpace, KeySpace, KeySpace, KeySpace, KeySpace, KeyRightAlt, KeyRightMeta,
	KeyMenu, KeyRightCtrl, KeyDown, KeyRight, KeyEscape, KeyF2, KeyF3, KeyF6,
	KeyF9, KeyF10, KeyF11, KeyF12, KeyInsert, KeyPrintScreen, KeyDelete,
}

var keyDownNoWrap = [numKeyboardKeys]KeyboardKey{
	KeyNone, KeyBacktick, Key1, Key2, Key3, Key4, Key5, Key6,
	Key7, Key8, Key9, Key0, KeyMinus, KeyEquals, KeyBackspace, KeyBackspace,
	KeyHome, KeyTab, KeyTab, KeyQ, KeyW, KeyE, KeyR, KeyT,
	KeyY, KeyU, KeyI, KeyO, KeyP, KeyLeftBracket, KeyRightBracket, KeyPageUp,
	KeyCapsLock, KeyA, KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ,
	KeyK, KeyL, KeySemicolon, KeyApostrophe, KeyEnter, KeyEnter, KeyPageDown, KeyLeftShift,
	KeyZ, KeyX, KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma,
	KeyDot, KeySlash, KeyRightShift, KeyUp, KeyEnd, KeyLeftCtrl, KeyLeftCtrl, KeyLeftMeta,
	KeyLeftAlt, KeySpace, KeySpace, KeySpace, KeySpace, KeySpace, KeyRightAlt, KeyRightMeta,
	KeyMenu, KeyRightCtrl, KeyDown, KeyRight, KeyNone, KeyNone, KeyNone, KeyNone,
	KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyNone,
}

// Square grid adjacency, indexed by cell ID - TopLeftCellID.

var squareLeftWrap = [9]int{
	TopRightCellID, TopLeftCellID, TopCentreCellID,
	CentreRightCellID, CentreLeftCellID, CentreCellID,
	BottomRightCellID, BottomLeftCellID, BottomCentreCellID,
}

var squareLeftNoWrap = [9]int{
	NoneID, TopLeftCellID, TopCentreCellID,
	NoneID, CentreLeftCellID, CentreCellID,
	NoneID, BottomLeftCellID, BottomCentreCellID,
}

var squareRightWrap = [9]int{
	TopCentreCellID, TopRightCellID, TopLeftCellID,
	CentreCellID, CentreRightCellID, CentreLeftCellID,
	BottomCentreCellID, BottomRightCellID, BottomLeftCellID,
}

var squareRightNoWrap = [9]int{
	TopCentreCellID, TopRightCellID, NoneID,
	CentreCellID, CentreRightCellID, NoneID,
	BottomCentreCellID, BottomRightCellID, NoneID,
}

var squareUpWrap = [9]int{
	BottomLeftCellID, BottomCentreCellID, BottomRightCellID,
	TopLeftCellID, TopCentreCellID, TopRightCellID,
	CentreLeftCellID, CentreCellID, CentreRightCellID,
}

var squareUpNoWrap = [9]int{
	NoneID, NoneID, NoneID,
	TopLeftCellID, TopCentreCellID, TopRightCellID,
	CentreLeftCellID, CentreCellID, CentreRightCellID,
}

var squareDownWrap = [9]int{
	CentreLeftCellID, CentreCellID, CentreRightCellID,
	BottomLeftCellID, BottomCentreCellID, BottomRightCellID,
	TopLeftCellID, TopCentreCellID, TopRightCellID,
}

var squareDownNoWrap = [9]int{
	CentreLeftCellID, CentreCellID, CentreRightCellID,
	BottomLeftCellID, BottomCentreCellID, BottomRightCellID,
	NoneID, NoneID, NoneID,
}
