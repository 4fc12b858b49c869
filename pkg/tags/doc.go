/*
Package tags implements screen-shareable tags (virtual desktops) for a
window manager.

A conventional tag belongs to one screen forever. Here, a tag belongs to a
World and merely visits a screen: viewing a tag on another screen reassigns
it there, clients and all (a client with another of its tags still on the
old screen stays put). The engine maintains three things while a tag moves
around:

  - each screen that has tags always has a selected tag (the screen losing
    its only selected tag falls back to its previous selection, or failing
    that to its lowest-index tag);
  - the tag order within a screen's list, keyed by immutable creation
    index, so a move never shuffles the tags that stayed put;
  - per-screen selection history, which survives tags coming and going and
    never resurrects a deleted tag.

The engine owns no windows and speaks no X. The host feeds it screens and
clients, mutates it from its event loop (the World is single-threaded by
contract), and reacts to Notify callbacks to place windows and advertise
state. See cmd/sharedtagsd for a complete host.
*/
package tags
