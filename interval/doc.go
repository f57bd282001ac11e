/*Package interval implements arithmetic on closed integer intervals of
  genomic coordinates.  Intervals here are inclusive on both ends, matching
  the positional de Bruijn graph convention where a node is observed at every
  reference start position in [Start, End].

  The package also provides a sweep over a set of closed spans to locate
  uncovered gaps, which the positional engine uses to find the part of a
  node's interval that has no onward edge.
*/
package interval
