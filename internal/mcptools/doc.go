// Package mcptools exposes a smart outlet as Model Context Protocol tools.
//
// The tools are outlet_on, outlet_off, outlet_info, outlet_state and
// outlet_undo. Switches run as outlet.Action values through an
// outlet.History, so outlet_undo restores the state seen before the most
// recent switch.
//
// Usage:
//
//	c, _ := outlet.Dial(ctx, "127.0.0.1:7878", stp.Config{})
//	srv := mcptools.New(c, mcptools.Options{Version: version})
//	err := srv.Serve(ctx, os.Stdin, os.Stdout, nil)
package mcptools
