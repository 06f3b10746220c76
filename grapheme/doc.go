/*
Package grapheme does offset arithmetic on text, measured in runes, without
ever leaving an offset inside a grapheme cluster.

A user perceives "é" written as 'e' followed by U+0301 (combining acute accent)
as a single character, as well as a family emoji built from several code points
joined by zero-width joiners. Moving a caret or deleting a character has to
treat these clusters as a unit. Cluster boundaries are found by a Segmenter.
The default segmenter implements the Unicode text segmentation rules of UAX #29
(using package uniseg); type Codepoints is a fallback which steps over single
code points.

Word boundaries are computed on top of grapheme clusters. A cluster belongs to
a word if its first rune is a letter, a digit, a mark or an underscore.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package grapheme
