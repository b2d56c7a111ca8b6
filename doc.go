/*
Package gorgo is a grammar-constrained token decoder.

GoRGO loads an EBNF grammar and a tokenizer vocabulary once, then keeps a
language model's sampled output inside that grammar's language, one token
at a time. Package structure is as follows:

■ constrain: the public entry point — Engine ties a grammar, a
vocabulary and an incremental recognizer together and exposes
AcceptToken/AllowedTokenIDs/MaskLogits.

■ constrain/ebnf: lexes, parses and lowers EBNF grammar source into a
constrain/grammar.Store.

■ constrain/grammar: the immutable Lowered Normal Form grammar store.

■ constrain/earley: the incremental Earley recognizer, with Leo's
right-recursion acceleration and a reversible snapshot/revert model.

■ constrain/fsa, constrain/dfabuild: the DFA abstraction and compilers
for regex and except! literals embedded in a grammar.

■ constrain/vocab: a tokenizer vocabulary and its byte-prefix trie.

■ constrain/probe: walks a vocabulary's trie alongside a recognizer to
compute the set of tokens that would keep the grammar valid.

■ constrain/width: construction-time dimension validation.

The base package contains data types used throughout the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package gorgo
