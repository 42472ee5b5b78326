// Package feed implements the sensor-side transport: the UDP batch envelope
// carrying raw point records, the assembler that accumulates batches into
// whole frames, and the listeners (live UDP and PCAP replay) that drive it.
//
// The feed owns all cross-frame state. Once a frame is assembled it is handed
// to the pipeline as one immutable buffer plus its declared point stride and
// frame id; everything downstream is stateless per frame.
package feed
