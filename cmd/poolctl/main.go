// poolctl exercises the mempool allocator from the command line: timed
// benchmarks against the runtime allocator and multi-worker stress runs.
package main

func main() {
	execute()
}
