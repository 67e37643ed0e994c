// Package shader turns shader build requests into compiler invocations.
//
// The flow is linear: a Resolver globs source files under the shader root, a
// CommandBuilder derives the stage, varying definition and output path and
// assembles the compiler argument list, and an Invoker runs it through a
// tactile.Executor and returns a tagged Result. The Orchestrator strings the
// three together for "one shader" and "all shaders" requests and compiles
// files strictly one after another.
package shader
