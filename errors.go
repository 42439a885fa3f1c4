// SPDX-License-Identifier: EPL-2.0

package gamemix

import "errors"

var (
	// ErrConfig wraps configuration and catalog file failures found while
	// building a session.
	ErrConfig = errors.New("gamemix: invalid configuration")
	// ErrDevice wraps failures opening or starting the output stream.
	ErrDevice = errors.New("gamemix: audio device error")
	// ErrDoubleInit is returned by Init on a session that is already running.
	ErrDoubleInit = errors.New("gamemix: session already initialized")
	// ErrNotInitialized is returned by calls made before Init, after Close,
	// or once the render side is gone.
	ErrNotInitialized = errors.New("gamemix: session not initialized")

	ErrUnknownMusic  = errors.New("gamemix: unknown music")
	ErrUnknownEffect = errors.New("gamemix: unknown effect")
)
