/*
Package langmodel provides a character-level sliding window language model.

A Model is trained on a stream of runes, building a table that maps every
window of preceding characters to the frequencies of the character that
followed it. Once probabilities are calculated the model generates new text
by repeatedly sampling the next character and sliding the window forward.

Trained models can be exported as JSON or persisted to any database/sql
SQLite driver through a Store.
*/
package langmodel
