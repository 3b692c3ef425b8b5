// Package telemetry carries scalar sensor readings over UDP.
//
// Each datagram holds exactly one IEEE-754 float64 in big-endian byte order
// (8 bytes). Delivery is best effort: no acknowledgement, no retry, no
// ordering guarantee. A datagram of any other size is dropped.
//
// # Collector
//
// A Collector runs one background goroutine that polls a Source (usually a
// UDP socket) and keeps the latest reading for any number of concurrent
// readers:
//
//	pc, err := telemetry.ListenUDP("0.0.0.0:55331")
//	c := telemetry.NewCollector(20.2, telemetry.Config{LoggerFactory: log})
//	if err := c.Run(pc, 500*time.Millisecond); err != nil {
//	    return err
//	}
//	defer c.Close() // returns within one poll interval
//
//	t := c.CurrentReading()
//
// Shutdown is cooperative: the loop checks a stop flag once per iteration
// and every read is bounded by the poll interval. A reading that arrives
// after Stop is discarded.
//
// # Sender
//
// Senders are composed explicitly:
//
//	udp, _ := telemetry.NewUDPSender("127.0.0.1:0", cfg)
//	var s telemetry.Sender = telemetry.NewLoggingSender(udp, cfg)
//	s.SendReading(21.5, peer)
//
// PeriodicSender drives a Sender on a fixed interval.
package telemetry
