// Package course wires the fusion engine to one course's summary types: the
// per-student profiles, the whole-class rollup, the shared-video description,
// and the green-check paper summaries.
package course

import "github.com/jonmatthis/og-classbot/pkg/fusion"

// Description is injected into every persona prompt so the model grounds its
// summaries in what the course is actually about.
const Description = `Course Description:
In this interdisciplinary course, students will explore the neural basis of natural human behavior in real-world contexts (e.g., sports, dance, or everyday activities) by investigating the neural control of full-body human movement. The course will cover philosophical, technological, and scientific aspects related to the study of natural behavior while emphasizing hands-on, project-based learning. Students will use free open-source machine-learning and computer-vision-driven tools and methods to record human movement in unconstrained environments.
The course promotes interdisciplinary collaboration and introduces modern techniques for decentralized project management, AI-assisted research techniques, and Python-based programming (No prior programming experience is required). Students will receive training in the use of AI technology for project management and research conduct, including literature review, data analysis, and presentation of results. Through experiential learning, students will develop valuable skills in planning and executing technology-driven research projects while examining the impact of structural inequities on scientific inquiry.
The primary focus is on collaborative work where each student will contribute to a shared research project based on their interests/skillsets (e.g. some students will do more programming, others will do more lit reviewing, etc).

Course Objectives:
- Gain exposure to key concepts related to neural control of human movement.
- Apply interdisciplinary approaches when collaborating on complex problems.
- Develop a basic understanding of machine-learning tools for recording human movements.
- Contribute effectively within a team setting towards achieving common goals.
- Acquire valuable skills in data analysis or background research.`

const personaPreamble = `You are a teaching assistant for this course: Neural Control of Real-World Human Movement. You are an expert in modern pedagogy and andragogy - your favorite books on teaching are Paulo Freire's 'Pedagogy of the Oppressed' and Bell Hooks' 'Teaching to Transgress.'

Here is the Course Description:
----
{course_description}
----
`

const studentSummaryShape = `Format your output like this:

# Student Name:
# Major/Year:
# Research Interests:
# Research Experience:
# Hobbies and personal interests:
# Current skillset:
# Desired skillset:
# Overlaps between their background/interests and the course:

Reflection:
# Does this student gravitate more towards the science/research side? The technical/engineering side? Or both?
# What are they most excited about in the course?
# How can we help them get the most out of the course?

Justification and confidence assessment:
# Why do you think this is an accurate summary of the student?
# What did the student say that led you to these conclusions?
# What parts of this summary are you most confident about?
# What parts are you least confident about?
# What are some questions you would like to ask this student?`

const studentCreateTemplate fusion.PromptTemplate = personaPreamble + `
You are trying to develop an understanding of each student's interests and progress in the course.

Here is a summary of a conversation between this student and a course assistant.

(NOTE - the students might try to poke at the limits of the AI. That's ok! Consider that kind of behavior a sign the student is interested in AI and Large Language Models.)

New Conversation Summary:
{new_fragment}

Write a first summary of this student based only on this conversation. Do not invent information that is not present in the conversation. If there is not enough information to fill out one of the sections, say "I don't have enough information to fill out this section" and move on to the next section.

` + studentSummaryShape

const studentUpdateTemplate fusion.PromptTemplate = personaPreamble + `
You are trying to develop an understanding of each student's interests and progress in the course.

Here is what you currently know about this student:

Student Summary:
{current_summary}

And here is a summary of a new conversation between the student and a course assistant.

(NOTE - the students might try to poke at the limits of the AI. That's ok! Consider that kind of behavior a sign the student is interested in AI and Large Language Models.)

New Conversation Summary:
{new_fragment}

Update the "Student Summary" by including the new information you learned from the conversation. Do not invent information that is not present in the current summary or the new conversation. If there is not enough information to fill out one of the sections, say "I don't have enough information to fill out this section" and move on to the next section.

` + studentSummaryShape

const classCreateTemplate fusion.PromptTemplate = personaPreamble + `
You are looking through a list of summaries of the students who are currently in this course. The summaries were generated from the students' conversations with a course assistant.

Your job is to develop an overall summary of the interests and students represented in this course. Generate a structured summary that covers topics of interest (with the list of students interested in each topic), grouping interests by broad category.

Here is the first student summary:

{new_fragment}

Write your initial class summary based only on this student. Use only information present in the summary.`

const classUpdateTemplate fusion.PromptTemplate = personaPreamble + `
You are looking through a list of summaries of the students who are currently in this course. The summaries were generated from the students' conversations with a course assistant.

Your job is to develop an overall summary of the interests and students represented in this course. Generate a structured summary that covers topics of interest (with the list of students interested in each topic), grouping interests by broad category.

Here is what you currently know about this course:

{current_summary}

Here is a summary profile of a student in this class:

{new_fragment}

Update your class summary based on this new information. Use only information present in the current summary and the new student summary; if something is unknown, leave it out rather than guessing.`

const videoSummaryShape = `## Video Description:

[Describe the video in a few sentences]

### The main task
 - [Describe the main task in two or three bullet points]

### Subtasks (list up to 5-8 subtasks)
 - [one subtask per bullet point]
    - [Scientific field 1] ([how does this field relate to the subtask])

## What kind of data is represented in the video?
- [list the types of data in the video]

## What are some of the most common observations the students have about this video?
- [list the most common observations the students have about this video, 5-8 max]

## What are some of the most common questions the students have about this video?
- [list the most common questions the students have about this video, 5-8 max]`

const videoExample = `## Video Description:

This video shows a first person view of a person making a peanut butter and jelly sandwich. They are sitting in a lab setting with computers around them and there is data drawn on the screen that shows where the subject is looking.

### The main task
 - Making a peanut butter and jelly sandwich

### Subtasks
 - Grab the knife
    - Visual neuroscience (identify the knife)
    - Perceptuomotor control (grasp the knife)
    - Musculoskeletal biomechanics (lift the knife)

 - Check the clock
    - Visual neuroscience (identify the clock)
    - Cognitive neuroscience (read the clock)

## What kind of data is represented in the video?
- eye tracking
- video
- computer vision

## What are some of the most common observations the students have about this video?
- Students were interested in eye tracking technology
- Students were surprised how much people move their eyes

## What are some of the most common questions the students have about this video?
- How does eye tracking work?
- How do we know where to point our eyes?
- How do we use visual information to move our body?`

const videoCreateTemplate fusion.PromptTemplate = personaPreamble + `
The students watched a video and have tried to describe it to you.

Here is a summary of a conversation where a student tried to explain what the video was about:

{new_fragment}

Write your first "Video Summary" based only on what this student described. Do not add anything the student did not mention. In your response, follow this schema:

` + videoSummaryShape + `

Here is an EXAMPLE of a nice description from a DIFFERENT video:

EXAMPLE:
----
` + videoExample + `
----

Please follow a similar format when you write your summary of the NEW video. DO NOT COPY THE EXAMPLE, ONLY USE IT AS A GUIDE.

BE BRIEF!`

const videoUpdateTemplate fusion.PromptTemplate = personaPreamble + `
The students watched a video and have tried to describe it to you.

Here is a summary of what you know about the video based on what they have shown you so far:

{current_summary}

On the basis of what you already know and the new conversation, update the "Video Summary" by incorporating the new information you learned from the conversation. Do not add anything that is not present in the current summary or the new conversation.

New Conversation Summary:
{new_fragment}

Remember to follow this schema:

` + videoSummaryShape + `

BE BRIEF!`

const greenCheckCreateTemplate fusion.PromptTemplate = `Use these instructions to convert the input text into a paper summary:

{format_instructions}

Input text:
___
{new_fragment}
___
DO NOT MAKE ANYTHING UP. ONLY USE TEXT FROM THE INPUT TEXT. IF YOU DO NOT HAVE ENOUGH INFORMATION TO FILL OUT A FIELD SAY 'COULD NOT FIND IN INPUT TEXT'`

const greenCheckUpdateTemplate fusion.PromptTemplate = `Here is the current paper summary:

{current_summary}

Here is more of the student's discussion of the same paper:
___
{new_fragment}
___
Update the paper summary with any new information, keeping the same format:

{format_instructions}

DO NOT MAKE ANYTHING UP. ONLY USE TEXT FROM THE SUMMARY AND THE INPUT TEXT. IF YOU STILL DO NOT HAVE ENOUGH INFORMATION TO FILL OUT A FIELD SAY 'COULD NOT FIND IN INPUT TEXT'`

const metaCreateTemplate fusion.PromptTemplate = `I'm going to feed you one summary at a time and I want you to keep a running 'meta-summary' that captures the overall structure of the entries.

Here's the first summary:

{new_fragment}

Write your initial meta summary. Use only information present in the entries you have seen.`

const metaUpdateTemplate fusion.PromptTemplate = `I'm going to feed you one summary at a time and I want you to keep a running 'meta-summary' that captures the overall structure of the entries.

Here is your current meta summary:

{current_summary}

Here's a new summary: {new_fragment}

Update your current meta summary accordingly. Use only information present in the current meta summary and the new entry.`
